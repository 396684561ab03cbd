package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quiniela/platform/internal/app"
	"github.com/quiniela/platform/internal/cache"
	"github.com/quiniela/platform/internal/infra"
	"github.com/quiniela/platform/internal/repository"
	"github.com/quiniela/platform/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg, "quiniela-api")
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	provider, err := app.NewIdentityProvider(cfg, pool)
	if err != nil {
		return err
	}
	logger.Info("identity provider ready", "backend", cfg.IdentityBackend)

	if cfg.BootstrapEnabled() {
		_, err := service.EnsureAdmin(ctx, pool, provider, repository.NewPgUserRepository(), service.BootstrapAdmin{
			Email:    cfg.BootstrapAdminEmail,
			Password: cfg.BootstrapAdminPassword,
			Name:     cfg.BootstrapAdminName,
		}, logger)
		if err != nil {
			return err
		}
	}

	var (
		scheduleCache cache.ScheduleCache
		healthChecks  []infra.Check
	)
	if cfg.RedisEnabled {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		scheduleCache = cache.NewRedisScheduleCache(rdb, cfg.ScheduleCacheTTL)
		healthChecks = append(healthChecks, infra.RedisCheck(rdb))
		logger.Info("schedule cache enabled", "ttl", cfg.ScheduleCacheTTL)
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	router := app.NewRouter(app.RouterDeps{
		Pool:               pool,
		Provider:           provider,
		Logger:             logger,
		ScheduleCache:      scheduleCache,
		HealthChecks:       healthChecks,
		CORSOrigins:        cfg.CORSOrigins(),
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		TrustedProxies:     trustedProxies,
	})

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
