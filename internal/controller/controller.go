// Package controller wires add-to-cart buttons to the cart endpoint.
//
// A click is handled on the UI loop up to the point where the request is
// sent. The round trip runs on its own goroutine and its outcome is posted
// back to the loop, where the badge and the notification are updated.
// Outcomes are applied in arrival order, so the badge shows the count from
// whichever response was applied last.
package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/notification"
)

const (
	ButtonSelector        = ".add-to-cart"
	ItemIDAttr            = "data-item-id"
	QuantityInputSelector = ".quantity-input"
	cardBodySelector      = ".card-body"
	cardSelector          = ".card"
)

// Client sends add-to-cart requests.
type Client interface {
	AddToCart(ctx context.Context, req cart.ItemRequest) (cart.UpdateResult, error)
}

// Publisher receives one activity event per completed request.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Loop is the UI loop the controller posts outcomes to.
type Loop interface {
	Post(fn func()) bool
	Do(ctx context.Context, fn func()) error
}

// Badge is the cart counter sink.
type Badge interface {
	ApplyCount(count *int)
}

// Notifier is the feedback sink.
type Notifier interface {
	Show(container *goquery.Selection, message string, severity notification.Severity) *notification.Notification
}

// Config holds the controller's collaborators. Publisher and Logger are
// optional.
type Config struct {
	Page      *dom.Page
	Loop      Loop
	Client    Client
	Badge     Badge
	Notifier  Notifier
	Publisher Publisher
	Logger    *zap.Logger
}

// Controller handles add-to-cart clicks.
type Controller struct {
	page      *dom.Page
	loop      Loop
	client    Client
	badge     Badge
	notifier  Notifier
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	inflight pending
}

// New creates a controller.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		page:      cfg.Page,
		loop:      cfg.Loop,
		client:    cfg.Client,
		badge:     cfg.Badge,
		notifier:  cfg.Notifier,
		publisher: cfg.Publisher,
		logger:    logger.Named("add-to-cart"),
		now:       time.Now,
	}
}

// binding is what a button needs at click time, resolved once at bind time.
type binding struct {
	button        *goquery.Selection
	feedback      *goquery.Selection
	quantityScope *goquery.Selection
}

func (c *Controller) resolve(button *goquery.Selection) binding {
	b := binding{button: button}

	b.feedback = button.Closest(cardBodySelector)
	if b.feedback.Length() == 0 {
		b.feedback = c.page.Body()
	}

	b.quantityScope = quantityScope(button)
	return b
}

// Bind attaches the click handler to every button in sel. Call it from the
// UI loop.
func (c *Controller) Bind(sel *goquery.Selection) int {
	sel.Each(func(_ int, button *goquery.Selection) {
		c.page.AddEventListener(button, dom.EventClick, c.handleClick(c.resolve(button)))
	})
	return sel.Length()
}

func (c *Controller) handleClick(b binding) dom.Handler {
	return func(ctx context.Context, e *dom.Event) {
		e.PreventDefault()

		itemID, _ := b.button.Attr(ItemIDAttr)
		if strings.TrimSpace(itemID) == "" {
			return
		}

		req, err := cart.NewItemRequest(itemID, readQuantity(b.quantityScope))
		if err != nil {
			c.logger.Debug("click ignored", zap.String("item_id", itemID), zap.Error(err))
			return
		}
		c.send(ctx, b, req)
	}
}

func quantityScope(button *goquery.Selection) *goquery.Selection {
	scope := button.Closest(cardBodySelector)
	if scope.Length() == 0 {
		scope = button.Closest(cardSelector)
	}
	return scope
}

// ButtonFor returns the add-to-cart buttons for itemID.
func ButtonFor(page *dom.Page, itemID string) *goquery.Selection {
	return page.Find(ButtonSelector).FilterFunction(func(_ int, b *goquery.Selection) bool {
		return b.AttrOr(ItemIDAttr, "") == itemID
	})
}

// SetQuantity writes qty into the quantity input next to button. It reports
// false when the button has no quantity input.
func SetQuantity(button *goquery.Selection, qty int) bool {
	input := quantityScope(button.First()).Find(QuantityInputSelector).First()
	if input.Length() == 0 {
		return false
	}
	input.SetAttr("value", strconv.Itoa(qty))
	return true
}

// readQuantity returns the value of the first quantity input in scope, or
// the default quantity.
func readQuantity(scope *goquery.Selection) int {
	if scope == nil || scope.Length() == 0 {
		return cart.DefaultQuantity
	}
	input := scope.Find(QuantityInputSelector).First()
	if input.Length() == 0 {
		return cart.DefaultQuantity
	}
	raw, _ := input.Attr("value")
	return cart.ParseQuantity(raw)
}

func (c *Controller) send(ctx context.Context, b binding, req cart.ItemRequest) {
	// the request outlives the click
	reqCtx := context.WithoutCancel(ctx)

	c.inflight.add()
	go func() {
		result, err := c.client.AddToCart(reqCtx, req)
		c.publish(reqCtx, req, result, err)

		applied := c.loop.Post(func() {
			defer c.inflight.done()
			c.apply(b, req, result, err)
		})
		if !applied {
			c.logger.Warn("ui loop stopped before outcome was applied", zap.String("item_id", req.ItemID))
		}
	}()
}

// apply runs on the UI loop.
func (c *Controller) apply(b binding, req cart.ItemRequest, result cart.UpdateResult, err error) {
	switch {
	case err != nil:
		c.logger.Warn("add to cart failed",
			zap.String("item_id", req.ItemID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
		c.notifier.Show(b.feedback, cart.MessageNetworkError, notification.SeverityDanger)

	case result.Succeeded():
		c.badge.ApplyCount(result.CartCount)
		c.notifier.Show(b.feedback, result.SuccessMessage(), notification.SeveritySuccess)

	default:
		c.logger.Info("add to cart rejected",
			zap.String("item_id", req.ItemID),
			zap.Int("status", result.StatusCode),
			zap.String("message", result.Message),
		)
		c.notifier.Show(b.feedback, result.FailureMessage(), notification.SeverityWarning)
	}
}

func (c *Controller) publish(ctx context.Context, req cart.ItemRequest, result cart.UpdateResult, err error) {
	if c.publisher == nil {
		return
	}
	event := cart.NewActivityEvent(req, result, err, c.now())
	if perr := c.publisher.Publish(ctx, req.ItemID, event); perr != nil {
		c.logger.Warn("failed to publish activity", zap.String("event_type", event.EventType), zap.Error(perr))
	}
}

// Settle waits until no request is in flight and every outcome has been
// applied on the UI loop. Clicks made while waiting extend the wait. It must
// not be called from the loop.
func (c *Controller) Settle(ctx context.Context) error {
	return c.inflight.wait(ctx, c.loop)
}
