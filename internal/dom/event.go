package dom

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Event types dispatched by the storefront page.
const (
	EventClick  = "click"
	EventSubmit = "submit"
	EventChange = "change"
)

// File is a file selected in a file input, carried by change events.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Event is a UI event delivered to the handlers bound on its target element.
type Event struct {
	Type   string
	Target *goquery.Selection
	Files  []File

	defaultPrevented bool
}

// NewEvent creates an event of the given type.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType}
}

// PreventDefault suppresses the element's default action (navigation,
// form submission).
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a handler suppressed the default action.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Handler handles an event dispatched on the UI loop.
type Handler func(ctx context.Context, e *Event)
