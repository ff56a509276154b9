package models

import (
	"sort"
	"time"
)

// DirectoryMetadata is the facet aggregate produced by the offline pipeline.
// It always describes the whole validated dataset, never a filtered view.
type DirectoryMetadata struct {
	TotalMerchants   int                    `json:"totalMerchants"`
	Categories       []CategoryCount        `json:"categories"`
	Capabilities     []CapabilityCount      `json:"capabilities"`
	PaymentProviders []PaymentProviderCount `json:"paymentProviders"`
	GeneratedAt      time.Time              `json:"generatedAt"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CapabilityCount struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

type PaymentProviderCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Dataset is the snapshot the server loads at startup: merchants in their
// published order plus the metadata computed from them.
type Dataset struct {
	Merchants []*Merchant
	Metadata  DirectoryMetadata
}

// CategoryEntry is one row of the allowed-category vocabulary file.
type CategoryEntry struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CapabilityEntry is one row of the capability display-name lookup file.
type CapabilityEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// facetLess orders facet rows by count descending, then name ascending.
func facetLess(countI, countJ int, nameI, nameJ string) bool {
	if countI != countJ {
		return countI > countJ
	}
	return nameI < nameJ
}

// SortCategoryCounts orders rows by count descending, ties by name.
func SortCategoryCounts(rows []CategoryCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		return facetLess(rows[i].Count, rows[j].Count, rows[i].Name, rows[j].Name)
	})
}

// SortCapabilityCounts orders rows by count descending, ties by name.
func SortCapabilityCounts(rows []CapabilityCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		return facetLess(rows[i].Count, rows[j].Count, rows[i].Name, rows[j].Name)
	})
}

// SortPaymentProviderCounts orders rows by count descending, ties by name.
func SortPaymentProviderCounts(rows []PaymentProviderCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		return facetLess(rows[i].Count, rows[j].Count, rows[i].Name, rows[j].Name)
	})
}
