package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/projection"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadProjector()
	if err != nil {
		fmt.Fprintf(os.Stderr, "projector: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "projector: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("cart activity projector",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.ConsumerGroup),
	)

	readStore, closeStore, err := openReadStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open read store", zap.Error(err))
	}
	defer closeStore()

	projector := projection.NewProjector(readStore, logger)
	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ConsumerGroup, logger)
	defer consumer.Close()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, projector.HandleEvent)
	}()

	ticker := time.NewTicker(cfg.ReportEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			report(projector, logger)
		case err := <-done:
			report(projector, logger)
			if ctx.Err() == nil {
				logger.Error("consumer stopped", zap.Error(err))
				os.Exit(1)
			}
			logger.Info("shutting down")
			return
		}
	}
}

// openReadStore returns the PostgreSQL store when databaseURL is set and the
// in-memory store otherwise.
func openReadStore(databaseURL string, logger *zap.Logger) (store.ReadStoreInterface, func(), error) {
	if databaseURL == "" {
		logger.Info("using in-memory read store")
		return store.NewReadStore(), func() {}, nil
	}

	db, err := store.ConnectPostgres(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	readStore := store.NewPostgresReadStore(db, logger)
	if err := readStore.Migrate(); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL read store")
	return readStore, func() { db.Close() }, nil
}

func report(projector *projection.Projector, logger *zap.Logger) {
	for _, item := range projector.List() {
		fields := []zap.Field{
			zap.String("item_id", item.ItemID),
			zap.Int("attempts", item.Attempts()),
			zap.Int("succeeded", item.Succeeded),
			zap.Int("rejected", item.Rejected),
			zap.Int("failed", item.Failed),
			zap.Int("quantity_added", item.QuantityAdded),
		}
		if item.LastCartCount != nil {
			fields = append(fields, zap.Int("last_cart_count", *item.LastCartCount))
		}
		logger.Info("item activity", fields...)
	}
}
