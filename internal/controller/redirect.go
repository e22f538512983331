package controller

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/domain/cart"
)

// Navigator performs full-page navigations.
type Navigator interface {
	Navigate(ctx context.Context, rawURL string) (string, error)
}

// RedirectHandler is the no-fetch add-to-cart variant: a click navigates to
// the endpoint and the server answers with a redirect back to the menu. It
// is only bound when the fetch path is unavailable.
type RedirectHandler struct {
	page   *dom.Page
	loop   Loop
	nav    Navigator
	urlFor func(cart.ItemRequest) string
	logger *zap.Logger

	inflight pending
}

// NewRedirectHandler creates the legacy handler. urlFor builds the endpoint
// URL for a request.
func NewRedirectHandler(page *dom.Page, loop Loop, nav Navigator, urlFor func(cart.ItemRequest) string, logger *zap.Logger) *RedirectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		page:   page,
		loop:   loop,
		nav:    nav,
		urlFor: urlFor,
		logger: logger.Named("add-to-cart-redirect"),
	}
}

// Bind attaches the navigation handler to every button in sel.
func (h *RedirectHandler) Bind(sel *goquery.Selection) int {
	sel.Each(func(_ int, button *goquery.Selection) {
		scope := quantityScope(button)
		h.page.AddEventListener(button, dom.EventClick, func(ctx context.Context, e *dom.Event) {
			e.PreventDefault()

			itemID, _ := button.Attr(ItemIDAttr)
			if strings.TrimSpace(itemID) == "" {
				return
			}
			req, err := cart.NewItemRequest(itemID, readQuantity(scope))
			if err != nil {
				return
			}

			target := h.urlFor(req)
			navCtx := context.WithoutCancel(ctx)
			h.inflight.add()
			go func() {
				if _, err := h.nav.Navigate(navCtx, target); err != nil {
					h.logger.Warn("navigation failed", zap.String("url", target), zap.Error(err))
				}
				h.loop.Post(h.inflight.done)
			}()
		})
	})
	return sel.Length()
}

// Settle waits until no navigation is pending. It must not be called from
// the loop.
func (h *RedirectHandler) Settle(ctx context.Context) error {
	return h.inflight.wait(ctx, h.loop)
}
