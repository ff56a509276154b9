// Command directory serves the merchant directory API from a validated
// snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchantdir/internal/api"
	"merchantdir/internal/config"
	"merchantdir/internal/directory"
	"merchantdir/internal/logger"
	"merchantdir/internal/models"
	"merchantdir/internal/observability"
	"merchantdir/internal/ratelimit"
	"merchantdir/internal/storage"
	"merchantdir/internal/version"

	"github.com/redis/go-redis/v9"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	showVersion   = flag.Bool("version", false, "Print version and exit")
	exampleConfig = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}
	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Example configuration written to %s\n", *exampleConfig)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	store, err := loadSnapshot(context.Background(), cfg.Data)
	if err != nil {
		slog.Error("Failed to load merchant snapshot", "error", err, "source", cfg.Data.Source)
		os.Exit(1)
	}
	slog.Info("Merchant snapshot loaded",
		"source", cfg.Data.Source,
		"merchants", store.Len(),
		"generated_at", store.Metadata().GeneratedAt,
	)

	var service directory.ServiceInterface = directory.NewService(store)
	if cfg.Metrics.Enabled || cfg.Observability.Tracing.Enabled {
		instrumented, err := observability.NewInstrumentedService(service)
		if err != nil {
			slog.Error("Failed to create instrumented service", "error", err)
			os.Exit(1)
		}
		service = instrumented
	}

	handlerOpts := []api.HandlerOption{api.WithVersion(ver.Version)}
	if cfg.Server.PublicBaseURL != "" {
		base, err := url.Parse(cfg.Server.PublicBaseURL)
		if err != nil {
			slog.Error("Invalid public base URL", "error", err)
			os.Exit(1)
		}
		handlerOpts = append(handlerOpts, api.WithPublicBaseURL(base))
	}
	handlers := api.NewHandlers(service, handlerOpts...)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if cfg.RateLimit.Enabled {
		limiter, err := newLimiter(cfg.RateLimit, cfg.Metrics.Enabled)
		if err != nil {
			slog.Error("Failed to initialize rate limiter", "error", err)
			os.Exit(1)
		}
		defer limiter.Close()

		identifier := ratelimit.NewHeaderChain(
			cfg.RateLimit.ClientHeaders,
			cfg.RateLimit.FallbackKey,
			cfg.RateLimit.FallbackToRemoteAddr,
		)
		routeOpts = append(routeOpts, api.WithRateLimiter(ratelimit.Middleware(limiter, identifier)))
		slog.Info("Rate limiting enabled",
			"backend", cfg.RateLimit.Backend,
			"capacity", cfg.RateLimit.Capacity,
			"refill_rate", cfg.RateLimit.RefillRate,
		)
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Starting server", "addr", server.Addr, "tls", cfg.Server.TLSEnabled)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// loadSnapshot reads the whole dataset once; the source is closed
// afterwards since requests are served from memory.
func loadSnapshot(ctx context.Context, cfg models.DataConfig) (*storage.RecordStore, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	src, err := storage.NewSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return storage.Load(ctx, src)
}

// newLimiter builds the configured backend. The Redis backend fails open,
// so an unreachable server at startup is logged rather than fatal.
func newLimiter(cfg models.RateLimitConfig, instrument bool) (ratelimit.Limiter, error) {
	var limiter ratelimit.Limiter

	switch cfg.Backend {
	case models.RateLimitBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			slog.Warn("Redis unreachable, requests will be allowed until it recovers",
				"addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		limiter = ratelimit.NewRedisLimiter(client, cfg.Capacity, cfg.RefillRate,
			ratelimit.WithIdleTimeout(cfg.IdleTimeout),
			ratelimit.WithKeyPrefix(cfg.Redis.KeyPrefix),
		)
	case models.RateLimitBackendMemory:
		limiter = ratelimit.NewMemoryLimiter(cfg.Capacity, cfg.RefillRate,
			ratelimit.WithIdleTimeout(cfg.IdleTimeout),
			ratelimit.WithCleanupInterval(cfg.CleanupInterval),
		)
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}

	if !instrument {
		return limiter, nil
	}
	instrumented, err := observability.NewInstrumentedLimiter(limiter)
	if err != nil {
		limiter.Close()
		return nil, err
	}
	return instrumented, nil
}
