package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RemoveObserver is notified with the root nodes of every subtree removed
// through Page.Remove.
type RemoveObserver func(removed []*html.Node)

// Page is the storefront document plus its event listeners.
//
// A Page is not safe for concurrent use. All reads and writes happen on the
// UI loop goroutine.
type Page struct {
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]Handler
	observers []RemoveObserver
}

// NewPage wraps a parsed document.
func NewPage(doc *goquery.Document) *Page {
	return &Page{
		doc:       doc,
		listeners: make(map[*html.Node]map[string][]Handler),
	}
}

// Parse reads an HTML document into a Page.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return NewPage(doc), nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Page, error) {
	return Parse(strings.NewReader(s))
}

// Document returns the underlying goquery document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Find runs a CSS selector against the whole document.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// ByID returns the element with the given id, or an empty selection.
func (p *Page) ByID(id string) *goquery.Selection {
	return p.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

// Body returns the document body.
func (p *Page) Body() *goquery.Selection {
	return p.doc.Find("body").First()
}

// AddEventListener registers h for events of the given type on every
// element of sel.
func (p *Page) AddEventListener(sel *goquery.Selection, eventType string, h Handler) {
	for _, n := range sel.Nodes {
		byType, ok := p.listeners[n]
		if !ok {
			byType = make(map[string][]Handler)
			p.listeners[n] = byType
		}
		byType[eventType] = append(byType[eventType], h)
	}
}

// RemoveEventListeners drops every handler bound on the elements of sel and
// on their descendants.
func (p *Page) RemoveEventListeners(sel *goquery.Selection) {
	for _, root := range sel.Nodes {
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			delete(p.listeners, n)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	}
}

// ListenerCount returns how many handlers of the given type are bound on the
// first element of sel.
func (p *Page) ListenerCount(sel *goquery.Selection, eventType string) int {
	if sel.Length() == 0 {
		return 0
	}
	return len(p.listeners[sel.Get(0)][eventType])
}

// Dispatch delivers e to the handlers bound on the first element of target,
// in registration order. Events do not bubble.
func (p *Page) Dispatch(ctx context.Context, target *goquery.Selection, e *Event) *Event {
	if target.Length() == 0 {
		return e
	}
	e.Target = target.First()
	handlers := p.listeners[target.Get(0)][e.Type]
	// handlers may register further listeners
	handlers = append([]Handler(nil), handlers...)
	for _, h := range handlers {
		h(ctx, e)
	}
	return e
}

// Click dispatches a click event on target.
func (p *Page) Click(ctx context.Context, target *goquery.Selection) *Event {
	return p.Dispatch(ctx, target, NewEvent(EventClick))
}

// OnRemove registers an observer for Page.Remove.
func (p *Page) OnRemove(fn RemoveObserver) {
	p.observers = append(p.observers, fn)
}

// Remove detaches every element of sel from the document and notifies the
// remove observers.
func (p *Page) Remove(sel *goquery.Selection) {
	removed := make([]*html.Node, 0, sel.Length())
	for _, n := range sel.Nodes {
		if n.Parent != nil {
			removed = append(removed, n)
		}
	}
	sel.Remove()
	if len(removed) == 0 {
		return
	}
	for _, fn := range p.observers {
		fn(removed)
	}
}

// Attached reports whether the first element of sel is still part of the
// document.
func (p *Page) Attached(sel *goquery.Selection) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}
	root := p.doc.Get(0)
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	return p.doc.Html()
}

// Contains reports whether node is ancestor or a descendant of ancestor.
func Contains(ancestor, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Element builds a detached element node.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text builds a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr is shorthand for an html.Attribute.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Wrap returns a selection holding n.
func Wrap(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}
