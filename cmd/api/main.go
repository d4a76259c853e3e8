// Package main is the entry point for the leaderboard API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/kitrank/internal/api"
	"github.com/onnwee/kitrank/internal/auth"
	"github.com/onnwee/kitrank/internal/config"
	"github.com/onnwee/kitrank/internal/health"
	"github.com/onnwee/kitrank/internal/leaderboard"
	"github.com/onnwee/kitrank/internal/middleware"
	"github.com/onnwee/kitrank/internal/storage"
	"github.com/onnwee/kitrank/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Kitrank Leaderboard API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summary := cfg.LogSummary()
	attrs := make([]any, 0, len(summary)*2)
	for _, key := range slices.Sorted(maps.Keys(summary)) {
		attrs = append(attrs, key, summary[key])
	}
	logger.Info("configuration loaded", attrs...)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Enabled:        cfg.TracingEnabled,
		Environment:    cfg.Env,
		ExporterType:   cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SamplingRate:   cfg.TracingSampleRate,
		InsecureMode:   cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		// Readiness reports the outage; the process keeps serving /health.
		logger.Warn("database not reachable at startup", "error", err)
	}
	cancelPing()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(reg); err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	lbMetrics := leaderboard.NewMetrics()
	if err := lbMetrics.Register(reg); err != nil {
		return fmt.Errorf("register leaderboard metrics: %w", err)
	}

	healthCfg := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(db)}

	var limiter middleware.RateLimitStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		limiter = middleware.NewRedisRateLimitStore(client).WithMetrics(httpMetrics)
		healthCfg.RedisChecker = health.NewRedisChecker(client)
		logger.Info("rate limiter using redis", "addr", opts.Addr)
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		go mem.RunCleanup(ctx, 5*time.Minute)
		limiter = mem
		logger.Info("rate limiter using in-memory store")
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("leaderboard timezone: %w", err)
	}
	store := leaderboard.NewPostgresStore(db)
	engineCfg := leaderboard.EngineConfig{
		Source:   store,
		Profiles: store,
		Location: loc,
		Metrics:  lbMetrics,
		Logger:   logger,
	}
	if cfg.R2Configured() {
		signer, err := storage.NewAvatarSigner(storage.SignerConfig{
			BucketName:      cfg.R2BucketName,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return fmt.Errorf("avatar signer: %w", err)
		}
		engineCfg.Signer = signer
	} else {
		logger.Warn("R2 not configured, avatar urls will be null")
	}

	handler := newRouter(routerDeps{
		Logger:      logger,
		Leaderboard: leaderboard.NewEngine(engineCfg),
		Health:      api.NewHealthHandlers(healthCfg),
		Tokens:      auth.NewJWTService(cfg.JWTSecret, cfg.JWTPreviousSecret),
		Limiter:     limiter,
		LimitConfig: middleware.RateLimitConfig{
			RequestsPerWindow: cfg.LeaderboardRateLimit,
			WindowDuration:    time.Minute,
		},
		TrustProxy:     cfg.TrustProxyHeaders,
		Metrics:        httpMetrics,
		CORS:           middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins, MaxAge: 600},
		Profiling:      middleware.ProfilingConfig{Enabled: cfg.ProfilingEnabled, Environment: cfg.Env},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serve(ctx, server, logger, 10*time.Second)
}

// serve runs server until ctx is cancelled, then drains in-flight requests
// for up to grace.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger, grace time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
