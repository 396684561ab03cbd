package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quiniela/platform/internal/infra"
	"github.com/quiniela/platform/internal/repository"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox relay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg, "quiniela-outbox-relay")
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox relay connected to postgres")

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	if !producer.Enabled() {
		logger.Warn("kafka disabled; events stay in event_outbox until KAFKA_ENABLED=true")
		<-ctx.Done()
		return nil
	}

	poller := infra.NewOutboxPoller(pool, repository.NewOutboxRepository(), producer,
		cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error {
		// Stop the relay when the database goes away so the supervisor restarts it.
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				report := infra.RunChecks(gctx, infra.DatabaseCheck(pool))
				if !report.Healthy && gctx.Err() == nil {
					return fmt.Errorf("database unreachable: %w", report.Err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("outbox relay stopped")
	return nil
}
