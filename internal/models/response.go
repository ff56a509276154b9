// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes alongside human-readable messages
// - Pagination block and navigation links on every list response
// - RFC3339 timestamps for international compatibility
package models

import (
	"net/http"
	"time"
)

// ListMerchantsResponse is one page of merchants plus everything a client
// needs to render facets and navigate.
//
// Response Strategy:
// - Merchants is never null; an empty page encodes as []
// - Pagination describes the filtered result set
// - Links are absolute URLs preserving the caller's filters
// - Metadata describes the whole dataset, independent of the filters
type ListMerchantsResponse struct {
	Merchants  []*Merchant       `json:"merchants"`
	Pagination Pagination        `json:"pagination"`
	Links      Links             `json:"links"`
	Metadata   DirectoryMetadata `json:"metadata"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Links holds navigation URLs. First and Last are always present; Prev and
// Next only when such a page exists.
type Links struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// ErrorResponse provides structured error information with debugging context.
//
// Error Handling Design:
// - Error carries the HTTP status text ("Not Found", "Too Many Requests")
// - Machine-readable error codes for programmatic handling
// - Human-readable messages for user interfaces
// - Request ID for correlating with server logs
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
)

// Standard Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
const (
	ErrorCodeNotFound          = "NOT_FOUND"           // 404: Route doesn't exist
	ErrorCodeMerchantNotFound  = "MERCHANT_NOT_FOUND"  // 404: Slug not in the dataset
	ErrorCodeInvalidRequest    = "INVALID_REQUEST"     // 400: Invalid request data
	ErrorCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"  // 405: Read-only API
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED" // 429: Token bucket empty
	ErrorCodeInternalError     = "INTERNAL_ERROR"      // 500: Server-side error
)

// NewErrorResponse builds an error envelope whose Error field is the status
// text for statusCode.
func NewErrorResponse(statusCode int, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
