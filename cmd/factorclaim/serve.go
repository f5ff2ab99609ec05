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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/erazemk/factorclaim/internal/api"
	"github.com/erazemk/factorclaim/internal/auth"
	"github.com/erazemk/factorclaim/internal/authz"
	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/config"
	"github.com/erazemk/factorclaim/internal/db"
	"github.com/erazemk/factorclaim/internal/metrics"
	"github.com/erazemk/factorclaim/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (creating the database on first run)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringP("addr", "a", ":8080", "listen address")
	f.Duration("token-ttl", auth.DefaultTokenTTL, "access token lifetime")
	f.Bool("metrics", true, "expose Prometheus metrics at /metrics")
	f.String("redis-addr", "", "Redis address for the claim id counter (default: disabled)")
	f.Int("claim-id-attempts", 3, "attempts to allocate a unique claim id")
	bindFlags(f)
}

func serve(ctx context.Context, cfg *config.Config) error {
	closeLog, err := setupLogger(cfg.Log, cfg.SlogLevel())
	if err != nil {
		return err
	}
	defer closeLog()

	// Auto-init on first run.
	if dbMissing(cfg.DB) {
		database, password, err := initDatabase(ctx, cfg)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	gate, err := authz.NewGate()
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	opts := []claim.Option{
		claim.WithMetrics(m),
		claim.WithMaxAttempts(cfg.ClaimIDAttempts),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		opts = append(opts, claim.WithSequencer(claim.NewRedisSequencer(rdb, database)))
		slog.Info("claim ids allocated through redis", "addr", cfg.RedisAddr)
	}

	router := api.NewRouter(api.Deps{
		DB:      database,
		Issuer:  auth.NewIssuer(jwtSecret, cfg.TokenTTL),
		Gate:    gate,
		Claims:  claim.NewService(database, opts...),
		Clock:   clock.System{},
		Metrics: m,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(m)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "metrics", cfg.Metrics)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
