// Package models - Merchant records and their discovery profile.
// This file defines the catalog entry served by the directory API.
//
// Record Design Principles:
// - JSON field names match the published merchant data files exactly
// - Validation rules live in `validate` struct tags and are enforced offline
// - Records are immutable once loaded; no setter methods are provided
// - Nested objects that must be present are pointers so absence is detectable
package models

import "strings"

// Merchant is one catalog entry describing an e-commerce site that publishes
// a UCP discovery profile.
//
// Identity:
// - Slug is the stable primary key and must equal the source filename stem
// - Slug uniqueness is checked across the whole batch, not per record
//
// Facet Fields:
// - Categories drive the category facet (OR filter)
// - Profile.Capabilities drive the capability facet (AND filter)
// - Profile.PaymentHandlers[].Providers drive the payment facet (OR filter)
type Merchant struct {
	Slug        string            `json:"slug" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	URL         string            `json:"url" validate:"required,https"`
	Description string            `json:"description" validate:"required,min=10"`
	Logo        *Logo             `json:"logo" validate:"required"`
	Categories  []string          `json:"categories" validate:"required,min=1,dive,lowercased,category"`
	Tags        []string          `json:"tags" validate:"omitempty,dive,lowercased"`
	Profile     *UCPProfile       `json:"ucpProfile" validate:"required"`
	Metadata    *MerchantMetadata `json:"metadata" validate:"required"`
}

type Logo struct {
	URL    string `json:"url" validate:"required,https"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

// UCPProfile mirrors the merchant's /.well-known/ucp discovery document.
type UCPProfile struct {
	Version         string                `json:"version"`
	WellKnownURL    string                `json:"wellKnownUrl" validate:"required,https"`
	Capabilities    []Capability          `json:"capabilities" validate:"required,min=1,dive"`
	Services        map[string]UCPService `json:"services,omitempty"`
	PaymentHandlers []PaymentHandler      `json:"paymentHandlers,omitempty" validate:"omitempty,dive"`
}

// Capability is a dotted protocol capability such as
// "dev.ucp.shopping.checkout". Extends names the parent capability for
// extensions.
type Capability struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version"`
	Spec    string `json:"spec,omitempty"`
	Schema  string `json:"schema,omitempty"`
	Extends string `json:"extends,omitempty"`
}

type UCPService struct {
	Version string           `json:"version"`
	Spec    string           `json:"spec,omitempty"`
	REST    *ServiceEndpoint `json:"rest,omitempty"`
	MCP     *ServiceEndpoint `json:"mcp,omitempty"`
	A2A     *A2AEndpoint     `json:"a2a,omitempty"`
}

type ServiceEndpoint struct {
	Endpoint string `json:"endpoint"`
	Schema   string `json:"schema"`
}

type A2AEndpoint struct {
	Endpoint string `json:"endpoint"`
}

// PaymentHandler lists the payment providers reachable through one handler,
// e.g. "dev.ucp.delegate_payment" with ["Google Pay", "Stripe"].
type PaymentHandler struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Providers []string `json:"providers"`
}

// MerchantMetadata is advisory submission information. It plays no part in
// filtering.
type MerchantMetadata struct {
	SubmittedAt string `json:"submittedAt"`
	SubmittedBy string `json:"submittedBy"`
	Verified    bool   `json:"verified"`
	Featured    bool   `json:"featured"`
}

// CapabilityNames returns the capability names in profile order.
func (m *Merchant) CapabilityNames() []string {
	if m.Profile == nil {
		return nil
	}
	names := make([]string, 0, len(m.Profile.Capabilities))
	for _, c := range m.Profile.Capabilities {
		names = append(names, c.Name)
	}
	return names
}

// PaymentProviders flattens the provider lists of every payment handler.
// Duplicates across handlers are kept.
func (m *Merchant) PaymentProviders() []string {
	if m.Profile == nil {
		return nil
	}
	var providers []string
	for _, h := range m.Profile.PaymentHandlers {
		providers = append(providers, h.Providers...)
	}
	return providers
}

// SearchText is the lower-cased haystack used for free-text search: name,
// description, tags and categories joined by single spaces.
func (m *Merchant) SearchText() string {
	parts := make([]string, 0, 2+len(m.Tags)+len(m.Categories))
	parts = append(parts, m.Name, m.Description)
	parts = append(parts, m.Tags...)
	parts = append(parts, m.Categories...)
	return strings.ToLower(strings.Join(parts, " "))
}
