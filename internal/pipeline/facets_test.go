package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"merchantdir/internal/models"
)

func facetMerchant(categories []string, capabilities []string, providers ...[]string) *models.Merchant {
	m := &models.Merchant{Categories: categories, Profile: &models.UCPProfile{}}
	for _, c := range capabilities {
		m.Profile.Capabilities = append(m.Profile.Capabilities, models.Capability{Name: c})
	}
	for _, p := range providers {
		m.Profile.PaymentHandlers = append(m.Profile.PaymentHandlers, models.PaymentHandler{Providers: p})
	}
	return m
}

func TestAggregate_OrdersByCountThenName(t *testing.T) {
	merchants := []*models.Merchant{
		facetMerchant([]string{"c", "a", "b"}, nil),
		facetMerchant([]string{"b", "a"}, nil),
		facetMerchant([]string{"a", "b"}, nil),
	}

	meta := Aggregate(merchants, nil, time.Time{})

	assert.Equal(t, []models.CategoryCount{
		{Name: "a", Count: 3},
		{Name: "b", Count: 3},
		{Name: "c", Count: 1},
	}, meta.Categories)
}

func TestAggregate_AllTables(t *testing.T) {
	capabilities := map[string]models.CapabilityEntry{
		"dev.ucp.shopping.checkout": {Name: "dev.ucp.shopping.checkout", DisplayName: "Checkout"},
	}
	merchants := []*models.Merchant{
		facetMerchant([]string{"fashion"},
			[]string{"dev.ucp.shopping.checkout", "dev.ucp.shopping.fulfillment_options"},
			[]string{"Google Pay", "Stripe"}, []string{"Shop Pay"}),
		facetMerchant([]string{"fashion", "home"},
			[]string{"dev.ucp.shopping.checkout"},
			[]string{"Stripe"}),
	}
	generatedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	meta := Aggregate(merchants, capabilities, generatedAt)

	assert.Equal(t, 2, meta.TotalMerchants)
	assert.Equal(t, time.UTC, meta.GeneratedAt.Location())
	assert.True(t, meta.GeneratedAt.Equal(generatedAt))
	assert.Equal(t, []models.CapabilityCount{
		{Name: "dev.ucp.shopping.checkout", DisplayName: "Checkout", Count: 2},
		{Name: "dev.ucp.shopping.fulfillment_options", DisplayName: "Fulfillment Options", Count: 1},
	}, meta.Capabilities)
	assert.Equal(t, []models.PaymentProviderCount{
		{Name: "Stripe", Count: 2},
		{Name: "Google Pay", Count: 1},
		{Name: "Shop Pay", Count: 1},
	}, meta.PaymentProviders)
}

func TestAggregate_EmptyTablesAreNotNil(t *testing.T) {
	meta := Aggregate(nil, nil, time.Time{})
	assert.NotNil(t, meta.Categories)
	assert.NotNil(t, meta.Capabilities)
	assert.NotNil(t, meta.PaymentProviders)
}

func TestDisplayName(t *testing.T) {
	lookup := map[string]models.CapabilityEntry{
		"dev.ucp.shopping.checkout": {DisplayName: "Checkout"},
	}

	tests := []struct {
		name     string
		expected string
	}{
		{name: "dev.ucp.shopping.checkout", expected: "Checkout"},
		{name: "dev.ucp.shopping.order", expected: "Order"},
		{name: "dev.ucp.shopping.buyer_consent", expected: "Buyer Consent"},
		{name: "com.example.gift-card_balance", expected: "Gift Card Balance"},
		{name: "standalone", expected: "Standalone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.name, lookup))
		})
	}
}
