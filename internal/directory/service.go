// Package directory holds the read-side business logic of the merchant
// directory: list/search with facets and pagination, lookup by slug, and the
// global facet tables. It sits between the HTTP handlers and the in-memory
// record store.
package directory

import (
	"context"
	"errors"
	"net/url"

	"merchantdir/internal/models"
	"merchantdir/internal/query"
	"merchantdir/internal/storage"
)

// DefaultListPath is used to build links when a request carries no base URL.
const DefaultListPath = "/api/merchants"

// Service answers directory queries from an immutable snapshot.
type Service struct {
	store storage.Reader
}

// NewService creates a new directory service over the given store
func NewService(store storage.Reader) *Service {
	return &Service{
		store: store,
	}
}

// ListMerchants applies req's filters to the whole dataset, cuts the
// requested page and attaches navigation links plus the global metadata.
// Paging values out of range are clamped rather than rejected.
func (s *Service) ListMerchants(ctx context.Context, req *models.ListMerchantsRequest) (*models.ListMerchantsResponse, error) {
	if req == nil {
		return nil, NewInvalidRequestError("list request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.Normalize()

	filtered := query.Filter(s.store.All(), req.Filters)
	page, pagination := query.Paginate(filtered, req.Page, req.Limit)

	base := req.BaseURL
	if base == nil {
		base = &url.URL{Path: DefaultListPath}
	}

	return &models.ListMerchantsResponse{
		Merchants:  page,
		Pagination: pagination,
		Links:      query.BuildLinks(base, pagination.Page, pagination.Limit, pagination.TotalPages),
		Metadata:   s.store.Metadata(),
	}, nil
}

// GetMerchant returns the merchant whose slug matches exactly.
func (s *Service) GetMerchant(ctx context.Context, slug string) (*models.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := s.store.Get(slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewMerchantNotFoundError(slug, err)
		}
		return nil, NewInternalError("failed to look up merchant", err)
	}
	return m, nil
}

func (s *Service) Metadata(ctx context.Context) (models.DirectoryMetadata, error) {
	if err := ctx.Err(); err != nil {
		return models.DirectoryMetadata{}, err
	}
	return s.store.Metadata(), nil
}

func (s *Service) Count(ctx context.Context) int {
	return s.store.Len()
}
