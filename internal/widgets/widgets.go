// Package widgets binds the storefront's stateless page controls. Each
// Bind function attaches handlers to the matching elements of a page and
// returns how many elements it bound. All of them run on the UI loop.
package widgets

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/ui"
)

const (
	DefaultConfirmMessage = "ARE YOU SURE YOU WANT TO PROCEED?"
	ChooseFileLabel       = "CHOOSE FILE"

	// SearchReenableAfter is how long pruned search fields stay disabled.
	SearchReenableAfter = 100 * time.Millisecond
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// BindTooltips marks tooltip triggers initialized and exposes their title
// as an accessible label.
func BindTooltips(page *dom.Page) int {
	sel := page.Find(`[data-bs-toggle="tooltip"]`)
	sel.Each(func(_ int, el *goquery.Selection) {
		if title, ok := el.Attr("title"); ok && title != "" {
			el.SetAttr("aria-label", title)
		}
		el.SetAttr("data-tooltip-initialized", "true")
	})
	return sel.Length()
}

// BindQuantitySteppers wires the decrease and increase buttons of every
// .quantity-control to its input. Decrease stops at 1.
func BindQuantitySteppers(page *dom.Page) int {
	controls := page.Find(".quantity-control")
	controls.Each(func(_ int, control *goquery.Selection) {
		input := control.Find("input").First()
		page.AddEventListener(control.Find(".quantity-decrease").First(), dom.EventClick, func(_ context.Context, _ *dom.Event) {
			if v := inputInt(input); v > 1 {
				input.SetAttr("value", strconv.Itoa(v-1))
			}
		})
		page.AddEventListener(control.Find(".quantity-increase").First(), dom.EventClick, func(_ context.Context, _ *dom.Event) {
			v := inputInt(input)
			if v < 1 {
				v = 0
			}
			input.SetAttr("value", strconv.Itoa(v+1))
		})
	})
	return controls.Length()
}

func inputInt(input *goquery.Selection) int {
	v, err := strconv.Atoi(strings.TrimSpace(input.AttrOr("value", "")))
	if err != nil {
		return 0
	}
	return v
}

// BindSearchForm prunes empty fields from #searchForm submissions: they are
// disabled for the submission and re-enabled shortly after.
func BindSearchForm(page *dom.Page, scheduler ui.Scheduler) int {
	form := page.ByID("searchForm")
	if form.Length() == 0 {
		return 0
	}
	page.AddEventListener(form, dom.EventSubmit, func(_ context.Context, _ *dom.Event) {
		empty := form.Find("input, select").FilterFunction(func(_ int, field *goquery.Selection) bool {
			name := field.AttrOr("name", "")
			return name != "" && fieldValue(field) == "" && field.AttrOr("type", "") != "submit"
		})
		empty.SetAttr("disabled", "disabled")
		if scheduler != nil {
			scheduler.AfterFunc(SearchReenableAfter, func() {
				empty.RemoveAttr("disabled")
			})
		}
	})
	return 1
}

// FormValues serializes the enabled named fields of form.
func FormValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, select").Each(func(_ int, field *goquery.Selection) {
		name := field.AttrOr("name", "")
		if name == "" || field.AttrOr("type", "") == "submit" {
			return
		}
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}
		values.Add(name, fieldValue(field))
	})
	return values
}

func fieldValue(field *goquery.Selection) string {
	if goquery.NodeName(field) == "select" {
		selected := field.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = field.Find("option").First()
		}
		if v, ok := selected.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(selected.Text())
	}
	return field.AttrOr("value", "")
}

// BindConfirmActions asks for confirmation before .confirm-action elements
// proceed; a declined prompt prevents the default action.
func BindConfirmActions(page *dom.Page, confirmer Confirmer) int {
	sel := page.Find(".confirm-action")
	sel.Each(func(_ int, el *goquery.Selection) {
		page.AddEventListener(el, dom.EventClick, func(_ context.Context, e *dom.Event) {
			message := el.AttrOr("data-confirm-message", "")
			if message == "" {
				message = DefaultConfirmMessage
			}
			if confirmer == nil || !confirmer.Confirm(message) {
				e.PreventDefault()
			}
		})
	})
	return sel.Length()
}

// BindPasswordToggles flips the target input of every .toggle-password
// between hidden and visible text.
func BindPasswordToggles(page *dom.Page) int {
	sel := page.Find(".toggle-password")
	sel.Each(func(_ int, button *goquery.Selection) {
		page.AddEventListener(button, dom.EventClick, func(_ context.Context, _ *dom.Event) {
			input := page.ByID(button.AttrOr("data-target", ""))
			if input.Length() == 0 {
				return
			}
			if input.AttrOr("type", "") == "password" {
				input.SetAttr("type", "text")
				button.SetHtml(`<i class="fas fa-eye-slash"></i>`)
			} else {
				input.SetAttr("type", "password")
				button.SetHtml(`<i class="fas fa-eye"></i>`)
			}
		})
	})
	return sel.Length()
}

// BindFilePreviews shows the chosen image of every .custom-file-input in
// its preview element and names it in the input's label.
func BindFilePreviews(page *dom.Page) int {
	sel := page.Find(".custom-file-input")
	sel.Each(func(_ int, input *goquery.Selection) {
		page.AddEventListener(input, dom.EventChange, func(_ context.Context, e *dom.Event) {
			preview := page.ByID(input.AttrOr("data-preview", ""))
			label := page.Find("label[for]").FilterFunction(func(_ int, l *goquery.Selection) bool {
				return l.AttrOr("for", "") == input.AttrOr("id", "")
			}).First()

			if len(e.Files) > 0 {
				f := e.Files[0]
				preview.SetAttr("src", dataURL(f))
				preview.SetAttr("style", "display: block")
				label.SetText(f.Name)
				return
			}
			preview.SetAttr("src", "")
			preview.SetAttr("style", "display: none")
			label.SetText(ChooseFileLabel)
		})
	})
	return sel.Length()
}

func dataURL(f dom.File) string {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(f.Data))
}

// BindStarRatings mirrors the chosen .rating-input value into
// #rating-display.
func BindStarRatings(page *dom.Page) int {
	sel := page.Find(".rating-input")
	sel.Each(func(_ int, input *goquery.Selection) {
		page.AddEventListener(input, dom.EventChange, func(_ context.Context, _ *dom.Event) {
			display := page.ByID("rating-display")
			if display.Length() == 0 {
				return
			}
			display.SetText(StarLabel(input.AttrOr("value", "")))
		})
	})
	return sel.Length()
}

// StarLabel renders a rating value, e.g. "1 STAR" or "4 STARS".
func StarLabel(value string) string {
	if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && n > 1 {
		return value + " STARS"
	}
	return value + " STAR"
}
