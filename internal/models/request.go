// Package models - API request types and query parameter normalization.
// This file defines the incoming list/search request and its filter state.
//
// Normalization Philosophy:
// - Never reject a list request for bad paging input; clamp it instead
// - Non-numeric or missing page/limit fall back to defaults
// - Repeated query parameters map to multi-valued filters
// - Filter values are matched verbatim; only the free-text query is case-folded
package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Pagination limits for list endpoints.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query parameter names accepted by the list endpoint.
const (
	ParamPage       = "page"
	ParamLimit      = "limit"
	ParamQuery      = "q"
	ParamCategory   = "category"
	ParamCapability = "capability"
	ParamPayment    = "payment"
)

// FilterState is the set of active filters for a list request.
//
// Matching Semantics:
// - SearchQuery: case-insensitive substring over name, description, tags, categories
// - Categories: OR (any selected category matches)
// - Capabilities: AND (every selected capability must be present)
// - PaymentProviders: OR (any selected provider matches)
type FilterState struct {
	SearchQuery      string   `json:"q,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Capabilities     []string `json:"capabilities,omitempty"`
	PaymentProviders []string `json:"payment_providers,omitempty"`
}

// IsEmpty reports whether no filter is active.
func (f FilterState) IsEmpty() bool {
	return f.SearchQuery == "" &&
		len(f.Categories) == 0 &&
		len(f.Capabilities) == 0 &&
		len(f.PaymentProviders) == 0
}

// ListMerchantsRequest is a normalized list/search request.
// BaseURL is the absolute request URL used to build navigation links; its
// query string carries the parameters to preserve.
type ListMerchantsRequest struct {
	Page    int
	Limit   int
	Filters FilterState
	BaseURL *url.URL
}

// ParseListMerchantsRequest builds a normalized request from query values.
func ParseListMerchantsRequest(values url.Values) *ListMerchantsRequest {
	req := &ListMerchantsRequest{
		Page:  parseIntOr(values.Get(ParamPage), DefaultPage),
		Limit: parseIntOr(values.Get(ParamLimit), DefaultPageSize),
		Filters: FilterState{
			SearchQuery:      values.Get(ParamQuery),
			Categories:       nonEmpty(values[ParamCategory]),
			Capabilities:     nonEmpty(values[ParamCapability]),
			PaymentProviders: nonEmpty(values[ParamPayment]),
		},
	}
	req.Normalize()
	return req
}

// Normalize clamps Page to at least 1 and Limit to [1, MaxPageSize].
func (r *ListMerchantsRequest) Normalize() {
	r.Page = ClampPage(r.Page)
	r.Limit = ClampLimit(r.Limit)
}

// ClampPage returns page, or 1 when page is below 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit bounds limit to [1, MaxPageSize].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func parseIntOr(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// nonEmpty drops empty selector values such as "?category=".
func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
