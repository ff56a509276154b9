package storage

import (
	"context"

	"merchantdir/internal/models"
)

// Source loads a published snapshot. It can be implemented by different
// backends such as JSON files or databases.
type Source interface {
	// Load returns every merchant in published order plus the metadata
	// computed for them.
	Load(ctx context.Context) (*models.Dataset, error)

	// Close releases the backend's resources.
	Close() error
}

// Publisher replaces the stored snapshot with a new one. Implementations must
// make the swap atomic: readers see either the old snapshot or the new one.
type Publisher interface {
	Publish(ctx context.Context, ds *models.Dataset) error

	Close() error
}

// Reader is the read-only view the request path uses.
type Reader interface {
	// All returns every merchant in published order. Callers must not modify
	// the returned slice.
	All() []*models.Merchant

	// Get returns the merchant with the given slug or ErrNotFound.
	Get(slug string) (*models.Merchant, error)

	// Metadata returns the facet tables for the whole dataset.
	Metadata() models.DirectoryMetadata

	// Len returns the number of merchants.
	Len() int
}
