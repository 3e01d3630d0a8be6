package server

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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/config"
	"hrpay/internal/platform/crypto"
	"hrpay/internal/platform/db"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	audithandler "hrpay/internal/transport/http/handlers/audit"
	authhandler "hrpay/internal/transport/http/handlers/auth"
	payrollhandler "hrpay/internal/transport/http/handlers/payroll"
	"hrpay/internal/transport/http/middleware"
)

const (
	permissionCacheTTL = time.Minute
	loginAttempts      = 10
	shutdownTimeout    = 15 * time.Second
)

// Pinger reports database readiness; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers are the mounted API surfaces.
type Handlers struct {
	Auth    *authhandler.Handler
	Payroll *payrollhandler.Handler
	Audit   *audithandler.Handler
	// Perms guards /metrics; without it the endpoint is not mounted.
	Perms middleware.PermissionStore
}

// Run connects to the database, prepares the schema, starts the background
// jobs and serves the API until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, db.SeedOptions{
			TenantName:    cfg.SeedTenantName,
			AdminEmail:    cfg.SeedAdminEmail,
			AdminPassword: cfg.SeedAdminPassword,
		}); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}
	if !sealer.Configured() {
		logger.Warn("DATA_ENCRYPTION_KEY not set; archives, payslips and mfa secrets are stored unencrypted")
	}

	collector := metrics.New()
	worker := jobs.New(pool, cfg.JobQueueSize)

	payrollService := payroll.NewService(payroll.NewStore(pool), cfg.Policy(), sealer)
	payrollService.Jobs = worker
	payrollService.PayslipDir = cfg.PayslipDir
	worker.Schedule(jobs.TenantJob{Type: payroll.JobArchive, Interval: cfg.AutoArchiveEvery, Run: payrollService.ArchiveDue})
	worker.Start(ctx)

	authStore := auth.NewStore(pool)
	auditStore := audit.NewStore(pool)
	perms := middleware.NewPermissionCache(authStore, permissionCacheTTL)

	authHandler := authhandler.NewHandler(auth.NewService(authStore, sealer, cfg.JWTSecret, cfg.TokenTTL), auditStore, collector)
	authHandler.Throttle = middleware.NewLimiter(loginAttempts, time.Minute, middleware.ClientIP)
	payrollHandler := payrollhandler.NewHandler(payrollService, perms, auditStore, collector)
	payrollHandler.Throttle = middleware.NewLimiter(cfg.RateLimitPerMinute, time.Minute, middleware.ActorOrIP)

	router := NewRouter(cfg, logger, collector, pool, Handlers{
		Auth:    authHandler,
		Payroll: payrollHandler,
		Audit:   audithandler.NewHandler(auditStore, perms),
		Perms:   perms,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter assembles the middleware chain and mounts every API surface.
func NewRouter(cfg config.Config, logger *slog.Logger, collector *metrics.Collector, ready Pinger, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Total-Count", middleware.RequestIDHeader},
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	proxies, err := cfg.ProxyPrefixes()
	if err != nil {
		logger.Warn("ignoring TRUSTED_PROXIES", "err", err)
	}
	r.Use(middleware.TrustedRealIP(proxies))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chimw.CleanPath)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(middleware.Auth(cfg.JWTSecret))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if ready == nil || ready.Ping(ctx) != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled && h.Perms != nil {
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		if h.Auth != nil {
			h.Auth.RegisterPublicRoutes(r)
			h.Auth.RegisterRoutes(r)
		}
		if h.Payroll != nil {
			h.Payroll.RegisterRoutes(r)
		}
		if h.Audit != nil {
			h.Audit.RegisterRoutes(r)
		}
	})
	return r
}
