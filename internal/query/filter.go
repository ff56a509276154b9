// Package query implements the read path of the directory: narrowing the
// merchant list by search text and facet selections, then cutting one page
// out of the result and building navigation links for it.
package query

import (
	"slices"
	"strings"

	"merchantdir/internal/models"
)

// Filter returns the merchants matching every active criterion in state, in
// their original order. With no active criterion the input is returned as is.
//
// The search query is a case-insensitive substring match against
// Merchant.SearchText. Categories and payment providers match when any
// selected value is present; capabilities match only when all selected
// values are present.
func Filter(merchants []*models.Merchant, state models.FilterState) []*models.Merchant {
	if state.IsEmpty() {
		return merchants
	}

	needle := strings.ToLower(state.SearchQuery)
	out := make([]*models.Merchant, 0, len(merchants))
	for _, m := range merchants {
		if matches(m, needle, state) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m *models.Merchant, needle string, state models.FilterState) bool {
	if needle != "" && !strings.Contains(m.SearchText(), needle) {
		return false
	}
	if len(state.Categories) > 0 && !anyOf(state.Categories, m.Categories) {
		return false
	}
	if len(state.Capabilities) > 0 && !allOf(state.Capabilities, m.CapabilityNames()) {
		return false
	}
	if len(state.PaymentProviders) > 0 && !anyOf(state.PaymentProviders, m.PaymentProviders()) {
		return false
	}
	return true
}

// anyOf reports whether at least one wanted value is in have.
func anyOf(wanted, have []string) bool {
	for _, w := range wanted {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// allOf reports whether have is a superset of wanted.
func allOf(wanted, have []string) bool {
	for _, w := range wanted {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
