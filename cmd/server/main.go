package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/af-corp/aegis-docai/internal/api"
	"github.com/af-corp/aegis-docai/internal/cache"
	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/filter/policy"
	"github.com/af-corp/aegis-docai/internal/filter/secrets"
	"github.com/af-corp/aegis-docai/internal/flows"
	"github.com/af-corp/aegis-docai/internal/health"
	"github.com/af-corp/aegis-docai/internal/kv"
	"github.com/af-corp/aegis-docai/internal/llm"
	"github.com/af-corp/aegis-docai/internal/ratelimit"
	"github.com/af-corp/aegis-docai/internal/store"
	"github.com/af-corp/aegis-docai/internal/telemetry"
)

var version = "dev"

const grpcHealthInterval = 15 * time.Second

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := newLogger(config.TelemetryConfig{LogLevel: "info", LogFormat: "json"})
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger = newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.Database.Driver)

	// Redis backs rate limiting and the response cache. Without it both are no-ops.
	var kvStore kv.Store
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		rs := kv.NewRedisStore(rdb)
		if err := rs.Ping(ctx); err != nil {
			logger.Warn("redis not reachable (rate limit follows fail_open, cache misses)", "error", err)
		} else {
			logger.Info("redis connected", "addr", addr)
		}
		kvStore = rs
	} else {
		logger.Warn("redis not configured, rate limiting and caching disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	llmClient := llm.NewClient(cfg.LLM, nil, metrics, logger)
	logger.Info("llm client ready", "provider", llmClient.ProviderName(), "model", cfg.LLM.Model)

	// Filter chain
	filterCfg := func() config.FilterConfig { return loader.Config().Filter }
	secretScanner := secrets.NewScanner(func() config.SecretsFilterConfig { return loader.Config().Filter.Secrets })
	evaluator := policy.NewEvaluator(func() config.PolicyFilterConfig { return loader.Config().Filter.Policy })
	loadPolicies := func() {
		if !evaluator.Enabled() {
			return
		}
		if err := evaluator.Load(); err != nil {
			logger.Error("failed to load policies", "error", err)
		}
	}
	loadPolicies()
	loader.OnReload(loadPolicies)
	chain := filter.NewChain(secretScanner, evaluator)

	flowService := flows.NewService(llmClient, db, db, chain, filterCfg, metrics, logger)
	checker := health.NewChecker(db, llmClient, cfg.Environment)

	handler := api.NewRouter(api.Deps{
		Config:    loader.Config,
		Flows:     flowService,
		Documents: db,
		Cache:     cache.New(kvStore, func() config.CacheConfig { return loader.Config().Cache }, metrics, logger),
		Limiter:   ratelimit.NewLimiter(kvStore, func() config.RateLimitConfig { return loader.Config().RateLimit }),
		Health:    checker,
		Metrics:   metrics,
		Gatherer:  reg,
		Logger:    logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server starting", "addr", addr, "version", version, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	var grpcHealth *health.GRPCServer
	if hAddr := cfg.Telemetry.GRPCHealthAddr; hAddr != "" {
		lis, err := net.Listen("tcp", hAddr)
		if err != nil {
			logger.Error("failed to listen for grpc health", "addr", hAddr, "error", err)
			os.Exit(1)
		}
		grpcHealth = health.NewGRPCServer(checker, grpcHealthInterval)
		go grpcHealth.Monitor(ctx)
		go func() {
			logger.Info("grpc health starting", "addr", hAddr)
			errCh <- grpcHealth.Serve(lis)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(c config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
