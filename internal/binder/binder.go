// Package binder discovers the page's interactive elements at load time and
// attaches their behaviours. It runs once per page.
package binder

import (
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/controller"
	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/ui"
	"github.com/example/ec-storefront/internal/widgets"
)

// Deps are the collaborators the bound behaviours need. Exactly one of
// AddToCart and Redirect is bound: the fetch controller when present, the
// redirect variant otherwise.
type Deps struct {
	Scheduler ui.Scheduler
	Confirmer widgets.Confirmer
	AddToCart *controller.Controller
	Redirect  *controller.RedirectHandler
	Logger    *zap.Logger
}

// Summary counts the elements bound per behaviour.
type Summary struct {
	Tooltips        int
	QuantityControl int
	SearchForms     int
	ConfirmActions  int
	PasswordToggles int
	FilePreviews    int
	StarRatings     int
	AddToCart       int
	AddToCartMode   string
}

// Add-to-cart modes reported in Summary.
const (
	ModeFetch    = "fetch"
	ModeRedirect = "redirect"
	ModeNone     = "none"
)

// Bind attaches every behaviour to page. Call it from the UI loop.
func Bind(page *dom.Page, deps Deps) Summary {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := Summary{
		Tooltips:        widgets.BindTooltips(page),
		QuantityControl: widgets.BindQuantitySteppers(page),
		SearchForms:     widgets.BindSearchForm(page, deps.Scheduler),
		ConfirmActions:  widgets.BindConfirmActions(page, deps.Confirmer),
		PasswordToggles: widgets.BindPasswordToggles(page),
		FilePreviews:    widgets.BindFilePreviews(page),
		StarRatings:     widgets.BindStarRatings(page),
		AddToCartMode:   ModeNone,
	}

	buttons := page.Find(controller.ButtonSelector)
	switch {
	case deps.AddToCart != nil:
		s.AddToCart = deps.AddToCart.Bind(buttons)
		s.AddToCartMode = ModeFetch
	case deps.Redirect != nil:
		s.AddToCart = deps.Redirect.Bind(buttons)
		s.AddToCartMode = ModeRedirect
	}

	logger.Named("binder").Info("page bound",
		zap.Int("tooltips", s.Tooltips),
		zap.Int("quantity_controls", s.QuantityControl),
		zap.Int("search_forms", s.SearchForms),
		zap.Int("confirm_actions", s.ConfirmActions),
		zap.Int("password_toggles", s.PasswordToggles),
		zap.Int("file_previews", s.FilePreviews),
		zap.Int("star_ratings", s.StarRatings),
		zap.Int("add_to_cart", s.AddToCart),
		zap.String("add_to_cart_mode", s.AddToCartMode),
	)
	return s
}
