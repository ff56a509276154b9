package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"merchantdir/internal/api"
	"merchantdir/internal/directory"
	"merchantdir/internal/models"
	"merchantdir/internal/pipeline"
	"merchantdir/internal/ratelimit"
	"merchantdir/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end: generate a snapshot from record files, load it, serve it.

var generatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func merchantDoc(slug string, categories []string, providers []string) map[string]any {
	return map[string]any{
		"slug":        slug,
		"name":        "Merchant " + slug,
		"url":         "https://" + slug + ".example",
		"description": "Sells things to people online.",
		"logo":        map[string]any{"url": "https://img.example/" + slug + ".png", "width": 64, "height": 64, "alt": slug},
		"categories":  categories,
		"ucpProfile": map[string]any{
			"version":      "2026-01-11",
			"wellKnownUrl": "https://" + slug + ".example/.well-known/ucp",
			"capabilities": []any{
				map[string]any{"name": "dev.ucp.shopping.checkout", "version": "2026-01-11"},
			},
			"paymentHandlers": []any{
				map[string]any{"name": "dev.ucp.delegate_payment", "version": "2026-01-11", "providers": providers},
			},
		},
		"metadata": map[string]any{"submittedAt": "2026-01-01T00:00:00Z", "submittedBy": "integration", "verified": true, "featured": false},
	}
}

// generate runs the pipeline over n merchants and returns the JSON source
// paths it wrote.
func generate(t *testing.T, n int) (merchantsDir, metadataFile string) {
	t.Helper()
	root := t.TempDir()
	merchantsDir = filepath.Join(root, "merchants")
	metadataFile = filepath.Join(root, "metadata.json")
	require.NoError(t, os.MkdirAll(merchantsDir, 0755))

	for i := 1; i <= n; i++ {
		slug := fmt.Sprintf("shop-%02d", i)
		category := "fashion"
		providers := []string{"Stripe"}
		if i%3 == 0 {
			category = "sports"
			providers = []string{"Adyen"}
		}
		data, err := json.Marshal(merchantDoc(slug, []string{category}, providers))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(merchantsDir, slug+".json"), data, 0644))
	}

	records, err := pipeline.LoadRecords(merchantsDir)
	require.NoError(t, err)

	rules := pipeline.NewRules(
		[]models.CategoryEntry{{Slug: "fashion", Name: "Fashion"}, {Slug: "sports", Name: "Sports"}},
		[]models.CapabilityEntry{{Name: "dev.ucp.shopping.checkout", DisplayName: "Checkout"}},
	)
	result, err := pipeline.New(rules,
		pipeline.WithClock(func() time.Time { return generatedAt }),
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	).Run(context.Background(), records)
	require.NoError(t, err)
	require.NoError(t, pipeline.WriteMetadata(metadataFile, result.Dataset.Metadata))

	return merchantsDir, metadataFile
}

func newServer(t *testing.T, n int, routeOpts ...api.RouteOption) *httptest.Server {
	t.Helper()
	merchantsDir, metadataFile := generate(t, n)

	cfg := models.NewDefaultConfig()
	cfg.Data.MerchantsDir = merchantsDir
	cfg.Data.MetadataFile = metadataFile

	src, err := storage.NewSource(context.Background(), cfg.Data)
	require.NoError(t, err)
	store, err := storage.Load(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	handlers := api.NewHandlers(directory.NewService(store), api.WithVersion("integration"))
	server := httptest.NewServer(api.SetupRoutes(handlers, cfg, routeOpts...))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestIntegration_ListPaginatesGeneratedSnapshot(t *testing.T) {
	server := newServer(t, 45)

	var page models.ListMerchantsResponse
	resp := getJSON(t, server.URL+"/api/merchants?page=3", &page)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Len(t, page.Merchants, 5)
	assert.Equal(t, "shop-41", page.Merchants[0].Slug)
	assert.Equal(t, models.Pagination{Page: 3, Limit: 20, Total: 45, TotalPages: 3, HasNext: false, HasPrev: true}, page.Pagination)
	assert.Equal(t, server.URL+"/api/merchants?limit=20&page=1", page.Links.First)
	assert.Equal(t, server.URL+"/api/merchants?limit=20&page=2", page.Links.Prev)
	assert.Empty(t, page.Links.Next)

	assert.Equal(t, 45, page.Metadata.TotalMerchants)
	assert.True(t, page.Metadata.GeneratedAt.Equal(generatedAt))
}

func TestIntegration_FiltersCombine(t *testing.T) {
	server := newServer(t, 12)

	var page models.ListMerchantsResponse
	getJSON(t, server.URL+"/api/merchants?category=sports&payment=Adyen", &page)

	require.Len(t, page.Merchants, 4)
	for _, m := range page.Merchants {
		assert.Contains(t, m.Categories, "sports")
	}
	assert.Equal(t, 4, page.Pagination.Total)

	getJSON(t, server.URL+"/api/merchants?category=sports&payment=Stripe", &page)
	assert.Empty(t, page.Merchants)
	assert.Equal(t, 0, page.Pagination.Total)
}

func TestIntegration_GetMerchant(t *testing.T) {
	server := newServer(t, 3)

	var merchant models.Merchant
	resp := getJSON(t, server.URL+"/api/merchants/shop-02", &merchant)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Merchant shop-02", merchant.Name)

	var notFound models.ErrorResponse
	resp = getJSON(t, server.URL+"/api/merchants/shop-99", &notFound)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Merchant not found", notFound.Message)
	assert.Equal(t, models.ErrorCodeMerchantNotFound, notFound.Code)
	assert.NotEmpty(t, notFound.RequestID)
}

func TestIntegration_MetadataAndHealth(t *testing.T) {
	server := newServer(t, 6)

	var meta models.DirectoryMetadata
	resp := getJSON(t, server.URL+"/api/metadata", &meta)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, meta.TotalMerchants)
	require.NotEmpty(t, meta.Categories)
	assert.Equal(t, "fashion", meta.Categories[0].Name)
	assert.Equal(t, 4, meta.Categories[0].Count)

	var health models.HealthCheckResponse
	resp = getJSON(t, server.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusHealthy, health.Status)
	assert.Equal(t, "integration", health.Version)
}

func TestIntegration_RateLimitedAfterBurst(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(3, 0.001)
	t.Cleanup(func() { limiter.Close() })
	identifier := ratelimit.NewHeaderChain([]string{"X-Forwarded-For"}, "unknown", false)

	server := newServer(t, 2, api.WithRateLimiter(ratelimit.Middleware(limiter, identifier)))

	get := func(client string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/merchants", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", client)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	for i := 0; i < 3; i++ {
		resp := get("203.0.113.7")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	}

	denied := get("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, denied.StatusCode)
	assert.NotEmpty(t, denied.Header.Get("Retry-After"))
	assert.Equal(t, "0", denied.Header.Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, get("198.51.100.1").StatusCode, "other clients keep their own bucket")

	health := getJSON(t, server.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is never rate limited")
}

func TestIntegration_SQLiteSnapshotServesSameData(t *testing.T) {
	merchantsDir, metadataFile := generate(t, 5)
	jsonSrc, err := storage.NewJSONSource(merchantsDir, metadataFile)
	require.NoError(t, err)
	ds, err := jsonSrc.Load(context.Background())
	require.NoError(t, err)

	dsn := filepath.Join(t.TempDir(), "directory.db")
	pub, err := storage.NewPublisher(context.Background(), models.DataSourceSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), ds))
	require.NoError(t, pub.Close())

	cfg := models.NewDefaultConfig()
	cfg.Data.Source = models.DataSourceSQLite
	cfg.Data.DSN = dsn
	src, err := storage.NewSource(context.Background(), cfg.Data)
	require.NoError(t, err)
	store, err := storage.Load(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	server := httptest.NewServer(api.SetupRoutes(api.NewHandlers(directory.NewService(store)), cfg))
	defer server.Close()

	var page models.ListMerchantsResponse
	getJSON(t, server.URL+"/api/merchants", &page)
	require.Len(t, page.Merchants, 5)
	assert.Equal(t, "shop-01", page.Merchants[0].Slug)
	assert.Equal(t, ds.Metadata.TotalMerchants, page.Metadata.TotalMerchants)
}
