package directory

import (
	"context"

	"merchantdir/internal/models"
)

// ServiceInterface defines the read operations the HTTP layer needs.
type ServiceInterface interface {
	// ListMerchants filters, paginates and links the dataset for req.
	ListMerchants(ctx context.Context, req *models.ListMerchantsRequest) (*models.ListMerchantsResponse, error)

	// GetMerchant returns one merchant by slug.
	GetMerchant(ctx context.Context, slug string) (*models.Merchant, error)

	// Metadata returns the facet tables for the whole dataset.
	Metadata(ctx context.Context) (models.DirectoryMetadata, error)

	// Count returns the number of merchants loaded.
	Count(ctx context.Context) int
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
