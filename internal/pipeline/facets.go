package pipeline

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"merchantdir/internal/models"
)

// Aggregate tallies the facet tables for a validated batch. Each table is
// ordered by count descending, ties by name ascending.
func Aggregate(merchants []*models.Merchant, capabilities map[string]models.CapabilityEntry, generatedAt time.Time) models.DirectoryMetadata {
	categoryCounts := make(map[string]int)
	capabilityCounts := make(map[string]int)
	providerCounts := make(map[string]int)

	for _, m := range merchants {
		for _, c := range m.Categories {
			categoryCounts[c]++
		}
		for _, name := range m.CapabilityNames() {
			capabilityCounts[name]++
		}
		for _, p := range m.PaymentProviders() {
			providerCounts[p]++
		}
	}

	meta := models.DirectoryMetadata{
		TotalMerchants:   len(merchants),
		Categories:       make([]models.CategoryCount, 0, len(categoryCounts)),
		Capabilities:     make([]models.CapabilityCount, 0, len(capabilityCounts)),
		PaymentProviders: make([]models.PaymentProviderCount, 0, len(providerCounts)),
		GeneratedAt:      generatedAt.UTC(),
	}
	for name, n := range categoryCounts {
		meta.Categories = append(meta.Categories, models.CategoryCount{Name: name, Count: n})
	}
	for name, n := range capabilityCounts {
		meta.Capabilities = append(meta.Capabilities, models.CapabilityCount{
			Name:        name,
			DisplayName: DisplayName(name, capabilities),
			Count:       n,
		})
	}
	for name, n := range providerCounts {
		meta.PaymentProviders = append(meta.PaymentProviders, models.PaymentProviderCount{Name: name, Count: n})
	}

	models.SortCategoryCounts(meta.Categories)
	models.SortCapabilityCounts(meta.Capabilities)
	models.SortPaymentProviderCounts(meta.PaymentProviders)
	return meta
}

// DisplayName resolves a capability's human label from the lookup table,
// falling back to the title-cased last dotted segment:
// "dev.ucp.shopping.fulfillment_options" becomes "Fulfillment Options".
func DisplayName(name string, capabilities map[string]models.CapabilityEntry) string {
	if entry, ok := capabilities[name]; ok && entry.DisplayName != "" {
		return entry.DisplayName
	}

	last := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		last = name[i+1:]
	}

	words := strings.FieldsFunc(last, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
