package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/badge"
	"github.com/example/ec-storefront/internal/binder"
	"github.com/example/ec-storefront/internal/cartclient"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/controller"
	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/notification"
	"github.com/example/ec-storefront/internal/ui"
	"github.com/example/ec-storefront/internal/widgets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(ctx, cfg, os.Args[1:], logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("storefront failed", zap.Error(err))
		os.Exit(1)
	}
}

// click is one ITEM[:QTY] argument. Quantity 0 means use the page's value.
type click struct {
	itemID   string
	quantity int
}

func parseClicks(args []string) ([]click, error) {
	clicks := make([]click, 0, len(args))
	for _, arg := range args {
		id, qty, hasQty := strings.Cut(arg, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%q: item id is required", arg)
		}
		c := click{itemID: id}
		if hasQty {
			n, err := strconv.Atoi(qty)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%q: quantity must be a positive integer", arg)
			}
			c.quantity = n
		}
		clicks = append(clicks, c)
	}
	return clicks, nil
}

func run(ctx context.Context, cfg config.Config, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	pagePath := fs.String("page", cfg.PagePath, "page path to load")
	outFile := fs.String("out", "", "write the resulting page HTML to this file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: storefront [-page path] [-out file] ITEM[:QTY] ...\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	clicks, err := parseClicks(fs.Args())
	if err != nil {
		return err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	if cfg.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: cfg.SessionCookieName, Value: cfg.SessionCookie, Path: "/"}})
	}

	client, err := cartclient.New(cfg.BaseURL, cartclient.HTTPClient(jar, cfg.HTTPTimeout, base), logger)
	if err != nil {
		return err
	}

	logger.Info("loading page",
		zap.String("base_url", cfg.BaseURL),
		zap.String("page", *pagePath),
		zap.String("cart_mode", cfg.CartMode),
	)
	page, err := client.FetchPage(ctx, *pagePath)
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := ui.NewLoop()
	go loop.Run(loopCtx) //nolint:errcheck

	var publisher controller.Publisher
	if cfg.PublishActivity() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing cart activity",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	badgeSync := badge.NewSynchronizer(page, nil)
	notifier := notification.NewService(page, loop, logger)

	deps := binder.Deps{
		Scheduler: loop,
		Confirmer: widgets.ConfirmFunc(func(message string) bool {
			logger.Info("confirmed", zap.String("prompt", message))
			return true
		}),
		Logger: logger,
	}
	var settle func(context.Context) error
	if cfg.CartMode == config.CartModeFetch {
		ctrl := controller.New(controller.Config{
			Page:      page,
			Loop:      loop,
			Client:    client,
			Badge:     badgeSync,
			Notifier:  notifier,
			Publisher: publisher,
			Logger:    logger,
		})
		deps.AddToCart = ctrl
		settle = ctrl.Settle
	} else {
		redirect := controller.NewRedirectHandler(page, loop, client, client.URL, logger)
		deps.Redirect = redirect
		settle = redirect.Settle
	}

	if err := loop.Do(ctx, func() { binder.Bind(page, deps) }); err != nil {
		return err
	}

	for _, c := range clicks {
		if err := loop.Do(ctx, func() { replay(ctx, page, c, logger) }); err != nil {
			return err
		}
	}

	settleCtx, cancel := context.WithTimeout(ctx, settleTimeout(cfg))
	defer cancel()
	if err := settle(settleCtx); err != nil {
		return fmt.Errorf("waiting for cart requests: %w", err)
	}

	return loop.Do(ctx, func() {
		report(badgeSync, notifier, logger)
		if *outFile != "" {
			if err := writePage(page, *outFile); err != nil {
				logger.Error("write page", zap.String("file", *outFile), zap.Error(err))
			}
		}
	})
}

func settleTimeout(cfg config.Config) time.Duration {
	if cfg.HTTPTimeout > 0 {
		return 2 * cfg.HTTPTimeout
	}
	return time.Minute
}

// replay runs on the UI loop.
func replay(ctx context.Context, page *dom.Page, c click, logger *zap.Logger) {
	button := controller.ButtonFor(page, c.itemID).First()
	if button.Length() == 0 {
		logger.Warn("no add-to-cart button for item", zap.String("item_id", c.itemID))
		return
	}
	if c.quantity > 0 && !controller.SetQuantity(button, c.quantity) {
		logger.Warn("item has no quantity input, using default",
			zap.String("item_id", c.itemID),
			zap.Int("default", cart.DefaultQuantity),
		)
	}
	page.Click(ctx, button)
}

// report runs on the UI loop.
func report(badgeSync *badge.Synchronizer, notifier *notification.Service, logger *zap.Logger) {
	count, known := badgeSync.Count()
	fields := []zap.Field{zap.Bool("badge_visible", badgeSync.Visible())}
	if known {
		fields = append(fields, zap.Int("cart_count", count))
	}
	logger.Info("cart badge", fields...)

	for _, n := range notifier.Active() {
		logger.Info("notification",
			zap.String("id", n.ID),
			zap.String("severity", string(n.Severity)),
			zap.String("message", n.Message),
		)
	}
}

func writePage(page *dom.Page, path string) error {
	html, err := page.HTML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}
