package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"merchantdir/internal/directory"
	"merchantdir/internal/models"

	"github.com/gorilla/mux"
)

// Handlers contains HTTP handlers for the directory API
type Handlers struct {
	service       directory.ServiceInterface
	publicBaseURL *url.URL
	version       string
	startTime     time.Time
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithPublicBaseURL makes navigation links use base instead of the scheme and
// host of the incoming request. Only the scheme, host and path prefix of base
// are used.
func WithPublicBaseURL(base *url.URL) HandlerOption {
	return func(h *Handlers) {
		h.publicBaseURL = base
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) HandlerOption {
	return func(h *Handlers) {
		h.version = v
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(service directory.ServiceInterface, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		service:   service,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListMerchants handles list and search requests
// GET /api/merchants?page=&limit=&q=&category=&capability=&payment=
func (h *Handlers) ListMerchants(w http.ResponseWriter, r *http.Request) {
	req := models.ParseListMerchantsRequest(r.URL.Query())
	req.BaseURL = h.requestURL(r)

	response, err := h.service.ListMerchants(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetMerchant handles single merchant lookups
// GET /api/merchants/{slug}
func (h *Handlers) GetMerchant(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	merchant, err := h.service.GetMerchant(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, merchant)
}

// Metadata handles requests for the global facet tables
// GET /api/metadata
func (h *Handlers) Metadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Metadata(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, meta)
}

// HealthCheck handles health check requests
// GET /health
// The dataset is loaded before the listener starts, so an empty dataset is
// reported as degraded rather than unhealthy.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	count := h.service.Count(r.Context())

	status := models.StatusHealthy
	if count == 0 {
		status = models.StatusDegraded
	}

	response := models.NewHealthCheckResponse(status)
	response.Version = h.version
	response.Uptime = time.Since(h.startTime).Round(time.Second).String()

	if count == 0 {
		response.AddComponent("dataset", models.StatusDegraded, "No merchants loaded")
	} else {
		response.AddComponent("dataset", models.StatusHealthy, "Dataset loaded")
	}
	response.AddComponent("api", models.StatusHealthy, "API is operational")
	response.AddMetric("merchants", count)

	if meta, err := h.service.Metadata(r.Context()); err == nil && !meta.GeneratedAt.IsZero() {
		response.AddMetric("generated_at", meta.GeneratedAt)
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// requestURL returns the absolute URL of r, rebased onto the configured
// public base URL when there is one.
func (h *Handlers) requestURL(r *http.Request) *url.URL {
	u := &url.URL{
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	if h.publicBaseURL != nil {
		u.Scheme = h.publicBaseURL.Scheme
		u.Host = h.publicBaseURL.Host
		if prefix := h.publicBaseURL.Path; prefix != "" && prefix != "/" {
			u.Path = singleJoiningSlash(prefix, r.URL.Path)
		}
		return u
	}

	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		u.Scheme = proto
	}
	u.Host = r.Host
	return u
}

func singleJoiningSlash(a, b string) string {
	switch aslash, bslash := a[len(a)-1] == '/', len(b) > 0 && b[0] == '/'; {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, data)
}

// writeServiceError maps err to a JSON error envelope. Service errors carry
// their own status; anything else is a 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *directory.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.StatusCode >= http.StatusInternalServerError {
			slog.Error("Request failed", "path", r.URL.Path, "error", err)
		} else {
			slog.Debug("Request rejected", "path", r.URL.Path, "code", svcErr.Code)
		}
		writeError(w, r, svcErr.StatusCode, svcErr.Message, svcErr.Code)
		return
	}

	slog.Error("Request failed", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, "Internal server error", models.ErrorCodeInternalError)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing left to send.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message, code string) {
	errorResp := models.NewErrorResponse(statusCode, message, code)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	writeJSON(w, statusCode, errorResp)
}
