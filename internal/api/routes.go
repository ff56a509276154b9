package api

import (
	"net/http"

	"merchantdir/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// unlimitedPaths are never traced and never rate limited.
var unlimitedPaths = map[string]bool{
	"/health":           true,
	"/api/health":       true,
	"/api/openapi.yaml": true,
	"/api/docs":         true,
}

type routeConfig struct {
	router []mux.MiddlewareFunc
	api    []mux.MiddlewareFunc
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeConfig)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(rc *routeConfig) {
		rc.router = append(rc.router, otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return !unlimitedPaths[r.URL.Path] && r.Method != http.MethodOptions
			}),
		))
	}
}

// WithRateLimiter guards the data endpoints with middleware. Health, docs
// and CORS preflight requests are not affected.
func WithRateLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(rc *routeConfig) {
		rc.api = append(rc.api, middleware)
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	var rc routeConfig
	for _, opt := range opts {
		opt(&rc)
	}

	router := mux.NewRouter()
	for _, mw := range rc.router {
		router.Use(mw)
	}
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)
	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	// Preflight is answered before the limited subrouter is consulted. A
	// MatcherFunc rather than Methods keeps unknown /api paths at 404.
	router.PathPrefix("/api").MatcherFunc(isPreflight).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/openapi.yaml", handlers.ServeOpenAPISpec).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", handlers.ServeSwaggerUI).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	for _, mw := range rc.api {
		api.Use(mw)
	}
	api.HandleFunc("/merchants", handlers.ListMerchants).Methods(http.MethodGet)
	api.HandleFunc("/merchants/{slug}", handlers.GetMerchant).Methods(http.MethodGet)
	api.HandleFunc("/metadata", handlers.Metadata).Methods(http.MethodGet)

	router.NotFoundHandler = requestIDMiddleware(http.HandlerFunc(notFoundHandler))
	router.MethodNotAllowedHandler = requestIDMiddleware(http.HandlerFunc(methodNotAllowedHandler))

	return router
}

func isPreflight(r *http.Request, _ *mux.RouteMatch) bool {
	return r.Method == http.MethodOptions
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Resource not found", models.ErrorCodeNotFound)
}

// methodNotAllowedHandler handles requests with invalid HTTP methods. The
// API is read-only.
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, OPTIONS")
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", models.ErrorCodeMethodNotAllowed)
}
