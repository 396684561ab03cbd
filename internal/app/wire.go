package app

import (
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/cache"
	"github.com/quiniela/platform/internal/guard"
	"github.com/quiniela/platform/internal/handler"
	adminhandler "github.com/quiniela/platform/internal/handler/admin"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/infra"
	"github.com/quiniela/platform/internal/repository"
	"github.com/quiniela/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool     *pgxpool.Pool
	Provider identity.Provider
	Logger   *slog.Logger

	// ScheduleCache may be nil to disable caching.
	ScheduleCache cache.ScheduleCache

	// HealthChecks are reported by /health next to the database check.
	HealthChecks []infra.Check

	CORSOrigins        []string
	LoginRatePerMinute int

	// TrustedProxies are the peers whose X-Forwarded-For is believed when
	// keying rate limits and login lockouts. Empty trusts none.
	TrustedProxies []netip.Prefix
}

// NewIdentityProvider builds the provider selected by IDENTITY_BACKEND. The
// hosted backend is wrapped in a circuit breaker.
func NewIdentityProvider(cfg *infra.Config, pool *pgxpool.Pool) (identity.Provider, error) {
	switch cfg.IdentityBackend {
	case infra.IdentityLocal:
		jwtMgr := identity.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
		return identity.NewLocalProvider(pool, repository.NewPgCredentialRepository(), jwtMgr), nil
	case infra.IdentityGoTrue:
		p := identity.NewGoTrueProvider(identity.GoTrueConfig{
			BaseURL:    cfg.IdentityURL,
			AnonKey:    cfg.IdentityAnonKey,
			ServiceKey: cfg.IdentityServiceKey,
		})
		return identity.WithCircuitBreaker(p, guard.NewCircuitBreaker(5, 30*time.Second)), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", cfg.IdentityBackend)
	}
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	logger := deps.Logger
	onErr := handler.ErrorWriter(logger)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	loginRate := deps.LoginRatePerMinute
	if loginRate <= 0 {
		loginRate = 20
	}

	// Repositories
	userRepo := repository.NewPgUserRepository()
	poolRepo := repository.NewPgPoolRepository()
	memberRepo := repository.NewPgMembershipRepository()
	pickRepo := repository.NewPgPickRepository()
	scheduleRepo := repository.NewPgScheduleRepository()
	outboxRepo := repository.NewOutboxRepository()
	txr := repository.NewPgTransactor(pool)

	// Guards
	authGuard := auth.NewGuard(pool, deps.Provider, userRepo)
	lockout := guard.NewLockout(pool, logger)
	loginLimiter := guard.NewRateLimiter(loginRate, time.Minute)
	joinLimiter := guard.NewRateLimiter(loginRate*3, time.Minute)

	// Services
	loginSvc := service.NewLoginService(pool, deps.Provider, userRepo, lockout)
	memberSvc := service.NewMembershipService(pool, txr, poolRepo, memberRepo, outboxRepo, logger)
	pickSvc := service.NewPickService(pool, txr, poolRepo, scheduleRepo, pickRepo, outboxRepo, logger)
	scheduleSvc := service.NewScheduleService(pool, scheduleRepo, deps.ScheduleCache, logger)
	userAdminSvc := service.NewUserAdminService(pool, deps.Provider, userRepo, logger)
	poolAdminSvc := service.NewPoolAdminService(pool, poolRepo, scheduleRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(loginSvc, logger)
	identityHandler := handler.NewIdentityHandler()
	poolHandler := handler.NewPoolHandler(memberSvc, authGuard, logger)
	pickHandler := handler.NewPickHandler(pickSvc, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, logger)

	// Admin handlers
	userAdmin := adminhandler.NewUserAdminHandler(userAdminSvc, logger)
	poolAdmin := adminhandler.NewPoolAdminHandler(poolAdminSvc, logger)
	tablesAdmin := adminhandler.NewTablesHandler(pool, logger)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.ResolveClientIP(deps.TrustedProxies))
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origins...))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	checks := append([]infra.Check{infra.DatabaseCheck(pool)}, deps.HealthChecks...)
	r.Get("/health", handler.HealthHandler(checks...))

	// Auth routes (no auth, rate-limited)
	r.With(handler.RateLimit(loginLimiter)).Post("/auth/login", authHandler.Login)

	// Join resolves the caller itself
	r.With(handler.RateLimit(joinLimiter)).Post("/pools/join", poolHandler.Join)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(authGuard, onErr))

		r.Get("/identity/me", identityHandler.Me)

		r.Get("/pools/mine", poolHandler.Mine)
		r.Get("/pools/{id}/members", poolHandler.Members)

		r.Post("/picks", pickHandler.Single)
		r.Post("/picks/bulk", pickHandler.Bulk)
		r.Get("/picks/by_user", pickHandler.ByUser)

		r.Get("/schedule", scheduleHandler.Schedule)
		r.Get("/seasons", scheduleHandler.Seasons)
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(authGuard, onErr))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userAdmin.List)
			r.Post("/", userAdmin.Create)
			r.Put("/", userAdmin.Update)
			r.Delete("/", userAdmin.Delete)
		})

		r.Route("/pools", func(r chi.Router) {
			r.Get("/", poolAdmin.List)
			r.Post("/", poolAdmin.Create)
			r.Put("/", poolAdmin.Update)
			r.Delete("/", poolAdmin.Delete)
		})

		r.Get("/tables", tablesAdmin.Peek)
	})

	return r
}
