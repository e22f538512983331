// Package badge renders the cart item counter.
package badge

import (
	"strconv"

	"github.com/example/ec-storefront/internal/dom"
)

// AnchorID is the id of the badge element.
const AnchorID = "cart-badge"

const (
	styleVisible = "display: inline-block"
	styleHidden  = "display: none"
)

// State is the page-lifetime CartBadgeState: the last count reported by the
// server. Only a Synchronizer writes it.
type State struct {
	count int
	known bool
}

// Count returns the last applied count and whether one was applied.
func (s *State) Count() (int, bool) {
	return s.count, s.known
}

// Synchronizer projects State onto the badge element. ApplyCount is the
// single mutation entry point; call it from the UI loop only.
type Synchronizer struct {
	page     *dom.Page
	anchorID string
	state    *State
}

// NewSynchronizer binds state to the badge anchor of page.
func NewSynchronizer(page *dom.Page, state *State) *Synchronizer {
	if state == nil {
		state = &State{}
	}
	return &Synchronizer{page: page, anchorID: AnchorID, state: state}
}

// ApplyCount shows count when it is positive and hides the badge otherwise.
// Without a badge element on the page it does nothing.
func (s *Synchronizer) ApplyCount(count *int) {
	el := s.page.ByID(s.anchorID)
	if el.Length() == 0 {
		return
	}

	if count != nil && *count > 0 {
		el.SetText(strconv.Itoa(*count))
		el.SetAttr("style", styleVisible)
		s.state.count, s.state.known = *count, true
		return
	}
	el.SetText("")
	el.SetAttr("style", styleHidden)
	s.state.count, s.state.known = 0, count != nil
}

// Count returns the state's last applied count.
func (s *Synchronizer) Count() (int, bool) {
	return s.state.Count()
}

// Visible reports whether the badge element is currently shown.
func (s *Synchronizer) Visible() bool {
	el := s.page.ByID(s.anchorID)
	if el.Length() == 0 {
		return false
	}
	style, _ := el.Attr("style")
	return style == styleVisible
}
