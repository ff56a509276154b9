package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"merchantdir/internal/models"
	"merchantdir/internal/storage"
)

// MockReader implements storage.Reader for testing
type MockReader struct {
	mock.Mock
}

func (m *MockReader) All() []*models.Merchant {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]*models.Merchant)
	}
	return nil
}

func (m *MockReader) Get(slug string) (*models.Merchant, error) {
	args := m.Called(slug)
	if v := args.Get(0); v != nil {
		return v.(*models.Merchant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReader) Metadata() models.DirectoryMetadata {
	return m.Called().Get(0).(models.DirectoryMetadata)
}

func (m *MockReader) Len() int {
	return m.Called().Int(0)
}

func merchant(slug string, categories []string, capabilities []string, providers ...string) *models.Merchant {
	caps := make([]models.Capability, 0, len(capabilities))
	for _, c := range capabilities {
		caps = append(caps, models.Capability{Name: c})
	}
	return &models.Merchant{
		Slug:        slug,
		Name:        "Shop " + slug,
		Description: "Sells things online.",
		Categories:  categories,
		Profile: &models.UCPProfile{
			Capabilities:    caps,
			PaymentHandlers: []models.PaymentHandler{{Name: "dev.ucp.delegate_payment", Providers: providers}},
		},
	}
}

func newTestService(n int) *Service {
	ds := &models.Dataset{Metadata: models.DirectoryMetadata{
		TotalMerchants: n,
		GeneratedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	for i := range n {
		ds.Merchants = append(ds.Merchants, merchant(fmt.Sprintf("m%02d", i), []string{"fashion"}, []string{"dev.ucp.shopping.checkout"}, "Stripe"))
	}
	return NewService(storage.NewRecordStore(ds))
}

func TestService_ListMerchants_Pagination(t *testing.T) {
	svc := newTestService(45)
	base, _ := url.Parse("https://dir.example/api/merchants?category=fashion")

	resp, err := svc.ListMerchants(context.Background(), &models.ListMerchantsRequest{Page: 3, Limit: 20, BaseURL: base})
	require.NoError(t, err)

	assert.Len(t, resp.Merchants, 5)
	assert.Equal(t, "m40", resp.Merchants[0].Slug)
	assert.Equal(t, models.Pagination{Page: 3, Limit: 20, Total: 45, TotalPages: 3, HasNext: false, HasPrev: true}, resp.Pagination)
	assert.Equal(t, "https://dir.example/api/merchants?category=fashion&limit=20&page=1", resp.Links.First)
	assert.Equal(t, "https://dir.example/api/merchants?category=fashion&limit=20&page=2", resp.Links.Prev)
	assert.Empty(t, resp.Links.Next)
	assert.Equal(t, 45, resp.Metadata.TotalMerchants)
}

func TestService_ListMerchants_ClampsPaging(t *testing.T) {
	svc := newTestService(3)

	resp, err := svc.ListMerchants(context.Background(), &models.ListMerchantsRequest{Page: -4, Limit: 500})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, models.MaxPageSize, resp.Pagination.Limit)
	assert.Len(t, resp.Merchants, 3)
	assert.Equal(t, "/api/merchants?limit=100&page=1", resp.Links.First)
}

func TestService_ListMerchants_PastEnd(t *testing.T) {
	svc := newTestService(3)

	resp, err := svc.ListMerchants(context.Background(), &models.ListMerchantsRequest{Page: 9, Limit: 20})
	require.NoError(t, err)

	assert.NotNil(t, resp.Merchants)
	assert.Empty(t, resp.Merchants)
	assert.Equal(t, 3, resp.Pagination.Total)
}

func TestService_ListMerchants_Filters(t *testing.T) {
	ds := &models.Dataset{Merchants: []*models.Merchant{
		merchant("a", []string{"fashion"}, []string{"checkout", "orders"}, "Stripe"),
		merchant("b", []string{"electronics"}, []string{"checkout"}, "PayPal"),
		merchant("c", []string{"fashion", "beauty"}, []string{"orders"}, "Stripe", "Klarna"),
	}}
	svc := NewService(storage.NewRecordStore(ds))

	tests := []struct {
		name    string
		filters models.FilterState
		want    []string
	}{
		{"no filters", models.FilterState{}, []string{"a", "b", "c"}},
		{"category any", models.FilterState{Categories: []string{"beauty", "electronics"}}, []string{"b", "c"}},
		{"capability all", models.FilterState{Capabilities: []string{"checkout", "orders"}}, []string{"a"}},
		{"payment any", models.FilterState{PaymentProviders: []string{"Klarna", "PayPal"}}, []string{"b", "c"}},
		{"search", models.FilterState{SearchQuery: "SHOP B"}, []string{"b"}},
		{"combined", models.FilterState{Categories: []string{"fashion"}, PaymentProviders: []string{"Stripe"}, Capabilities: []string{"orders"}}, []string{"a", "c"}},
		{"no match", models.FilterState{Categories: []string{"toys"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListMerchants(context.Background(), &models.ListMerchantsRequest{Page: 1, Limit: 20, Filters: tt.filters})
			require.NoError(t, err)

			got := make([]string, 0, len(resp.Merchants))
			for _, m := range resp.Merchants {
				got = append(got, m.Slug)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), resp.Pagination.Total)
		})
	}
}

func TestService_ListMerchants_NilRequest(t *testing.T) {
	svc := newTestService(1)

	_, err := svc.ListMerchants(context.Background(), nil)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	assert.Equal(t, models.ErrorCodeInvalidRequest, svcErr.Code)
}

func TestService_ListMerchants_CancelledContext(t *testing.T) {
	svc := newTestService(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListMerchants(ctx, &models.ListMerchantsRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_GetMerchant(t *testing.T) {
	svc := newTestService(3)

	m, err := svc.GetMerchant(context.Background(), "m01")
	require.NoError(t, err)
	assert.Equal(t, "m01", m.Slug)

	_, err = svc.GetMerchant(context.Background(), "M01")
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
	assert.Equal(t, models.ErrorCodeMerchantNotFound, svcErr.Code)
	assert.Equal(t, "Merchant not found", svcErr.Message)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_GetMerchant_StoreFailure(t *testing.T) {
	reader := new(MockReader)
	boom := errors.New("boom")
	reader.On("Get", "x").Return(nil, boom)

	svc := NewService(reader)
	_, err := svc.GetMerchant(context.Background(), "x")

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.ErrorIs(t, err, boom)
	reader.AssertExpectations(t)
}

func TestService_MetadataAndCount(t *testing.T) {
	reader := new(MockReader)
	meta := models.DirectoryMetadata{TotalMerchants: 7}
	reader.On("Metadata").Return(meta)
	reader.On("Len").Return(7)

	svc := NewService(reader)
	got, err := svc.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, meta, got)
	assert.Equal(t, 7, svc.Count(context.Background()))
	reader.AssertExpectations(t)
}

func TestServiceError_Error(t *testing.T) {
	err := NewInternalError("failed", errors.New("disk"))
	assert.Equal(t, "failed: disk", err.Error())
	assert.Equal(t, "Merchant not found", NewMerchantNotFoundError("x", nil).Error())
}
