package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"merchantdir/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the provider's registry on a separate port so scrapes
// never pass through the API rate limiter.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer serves provider's registry at cfg.Path on cfg.Port. With
// no registry (nil provider or metrics disabled) every path answers 404.
func NewMetricsServer(cfg models.MetricsConfig, provider *Provider) *MetricsServer {
	mux := http.NewServeMux()

	if provider != nil && provider.registry != nil {
		mux.Handle(cfg.Path, promhttp.HandlerFor(provider.registry, promhttp.HandlerOpts{
			Registry:      provider.registry,
			ErrorHandling: promhttp.ContinueOnError,
			ErrorLog:      slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		}))
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for in-process scrapes.
func (ms *MetricsServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start blocks serving metrics until Shutdown, then returns
// http.ErrServerClosed.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
