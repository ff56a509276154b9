package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"merchantdir/internal/models"
)

const deniedMessage = "Rate limit exceeded. Please try again later."

// Middleware returns HTTP middleware that enforces limiter per client as
// resolved by identifier. Every response carries the X-RateLimit headers;
// denied requests get 429 with Retry-After and never reach next.
func Middleware(limiter Limiter, identifier ClientIdentifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := identifier.Identify(r)

			allowed, info := limiter.Allow(r.Context(), key)

			// Always set rate limit headers
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(info.ResetSeconds))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(info.ResetSeconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				errorResp := models.NewErrorResponse(http.StatusTooManyRequests, deniedMessage, models.ErrorCodeRateLimitExceeded)
				errorResp.RequestID = r.Header.Get("X-Request-ID")
				if err := json.NewEncoder(w).Encode(errorResp); err != nil {
					slog.Error("Failed to encode rate limit response", "error", err)
				}

				slog.Warn("Rate limit exceeded",
					"key", key,
					"limit", info.Limit,
					"retry_after", info.ResetSeconds,
					"path", r.URL.Path,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
