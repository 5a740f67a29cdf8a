// Package main is the entry point for the Morocco View companion API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/moroccoview/companion/internal/config"
	"github.com/moroccoview/companion/internal/directions"
	"github.com/moroccoview/companion/internal/handler"
	"github.com/moroccoview/companion/internal/middleware"
	"github.com/moroccoview/companion/internal/repo"
	"github.com/moroccoview/companion/internal/route"
	"github.com/moroccoview/companion/internal/service"
	"github.com/moroccoview/companion/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
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

	if err := migrate(context.Background(), pool); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// --- Directions -------------------------------------------------------
	dirOpts := []directions.Option{
		directions.WithRateLimit(cfg.Directions.RPS, 1),
		directions.WithLogger(logger),
	}
	if cfg.Directions.RedisURL != "" {
		cache, err := directions.NewRedisCacheFromURL(context.Background(), cfg.Directions.RedisURL)
		if err != nil {
			// The cache only saves provider calls; run without it.
			slog.Warn("directions cache disabled", "error", err)
		} else {
			defer cache.Close()
			dirOpts = append(dirOpts, directions.WithCache(cache, cfg.Directions.CacheTTL))
		}
	}
	if cfg.Directions.APIKey == "" {
		slog.Warn("DIRECTIONS_API_KEY not set; route legs will be straight lines")
	}
	planner := route.NewPlanner(
		directions.New(cfg.Directions.BaseURL, cfg.Directions.APIKey, dirOpts...),
		logger,
	)

	// --- Services ---------------------------------------------------------
	venueRepo := repo.NewVenueRepo(pool)
	srv := handler.NewServer(handler.Services{
		Venues:    service.NewVenueService(venueRepo),
		Bookmarks: service.NewBookmarkService(repo.NewBookmarkRepo(pool), venueRepo),
		Tours:     service.NewTourService(repo.NewTourRepo(pool), venueRepo, planner, logger),
		Previews:  service.NewPreviewService(planner),
	}, logger)

	// --- Router -----------------------------------------------------------
	// RealIP runs before the rate limiter so clients behind a proxy get their own bucket.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewRateLimitHandler(
		middleware.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), logger))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Route previews may wait on the directions provider, so writes get more
	// room than reads.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	slog.Info("server stopped")
}

// migrate applies every pending embedded migration. goose drives database/sql,
// so the pool is exposed through pgx's stdlib adapter for the duration.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration_ms", res.Duration.Milliseconds())
	}
	return nil
}
