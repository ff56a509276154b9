package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// DefaultClientHeaders are consulted in order to find the caller's address.
var DefaultClientHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

// DefaultFallbackKey is shared by every request that carries none of the
// client headers.
const DefaultFallbackKey = "unknown"

// ClientIdentifier derives the rate limit key for a request.
type ClientIdentifier interface {
	Identify(r *http.Request) string
}

// HeaderChain identifies clients by the first populated proxy header. For
// comma separated headers such as X-Forwarded-For only the first hop is used.
//
// Requests without any of the headers all share Fallback, so one noisy
// header-less client can starve the others. Set UseRemoteAddr to key those
// requests by connection address instead.
type HeaderChain struct {
	Headers       []string
	Fallback      string
	UseRemoteAddr bool
}

// NewHeaderChain returns a HeaderChain, filling in defaults for empty values.
func NewHeaderChain(headers []string, fallback string, useRemoteAddr bool) *HeaderChain {
	if len(headers) == 0 {
		headers = DefaultClientHeaders
	}
	if fallback == "" {
		fallback = DefaultFallbackKey
	}
	return &HeaderChain{
		Headers:       headers,
		Fallback:      fallback,
		UseRemoteAddr: useRemoteAddr,
	}
}

func (h *HeaderChain) Identify(r *http.Request) string {
	for _, name := range h.Headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if h.UseRemoteAddr && r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return h.Fallback
}
