// Package main is the entry point for the Inkwell CMS API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-cms/backend/internal/config"
	"github.com/inkwell-cms/backend/internal/domain"
	"github.com/inkwell-cms/backend/internal/handler"
	"github.com/inkwell-cms/backend/internal/metrics"
	"github.com/inkwell-cms/backend/internal/middleware"
	"github.com/inkwell-cms/backend/internal/repo"
	"github.com/inkwell-cms/backend/internal/revalidate"
	"github.com/inkwell-cms/backend/internal/service"
	"github.com/inkwell-cms/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// .env is a local development convenience; in deployment the environment
	// is set by the orchestrator and the file simply does not exist.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Metrics ----------------------------------------------------------
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	// --- Wiring -----------------------------------------------------------
	cascade := revalidate.New(revalidate.Config{
		Endpoint: cfg.RevalidateBaseURL,
		Secret:   cfg.RevalidateSecret,
		Timeout:  cfg.RevalidateTimeout,
	}, nil, logger)

	posts := service.NewPostService(repo.NewPostRepo(pool), cascade)
	invalidator := revalidate.NewMemoryInvalidator()
	srv := handler.NewServer(posts, invalidator, cfg.RevalidateSecret, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(1 << 20)) // 1 MiB request bodies
	r.Use(middleware.NewMetrics())
	r.Use(middleware.NewActorResolver(actorTokens(cfg)))

	r.Handle("/metrics", promhttp.Handler())

	// The revalidation endpoint is the only route exposed to the render tier,
	// so it alone carries a per-client rate limit.
	r.Mount("/", srv.Routes(middleware.NewRateLimiter(cfg.RevalidateRPS, cfg.RevalidateBurst)))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	// Let in-flight invalidation calls finish before the pool closes.
	cascade.Drain()
	slog.Info("server stopped")
}

// runMigrations applies all pending migrations from the embedded FS.
// goose needs a database/sql handle, so a short-lived one is opened
// alongside the pgx pool used for serving traffic.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	if len(results) > 0 {
		slog.Info("migrations applied", "count", len(results))
	}
	return nil
}

// actorTokens maps the configured bearer tokens to their actors.
// The admin can write and publish; the author can only write drafts.
func actorTokens(cfg config.Config) map[string]*domain.Actor {
	tokens := make(map[string]*domain.Actor)
	if cfg.AdminToken != "" {
		tokens[cfg.AdminToken] = domain.NewActor("admin", domain.CapWritePosts, domain.CapPublishPosts)
	}
	if cfg.AuthorToken != "" {
		tokens[cfg.AuthorToken] = domain.NewActor("author", domain.CapWritePosts)
	}
	return tokens
}
