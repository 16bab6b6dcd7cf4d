package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

func f64(v float64) *float64 { return &v }

func strp(v string) *string { return &v }

func fixture() *catalog.MemoryStore {
	mk := func(asin, name, brand, category string, price, score float64) models.Product {
		return models.Product{
			ASIN: asin, ProductName: name, Brand: brand, Category: category,
			Price: price, Rating: f64(4), EstRevenue: f64(price * 10),
			Analysis: &models.ProductAnalysis{SimilarityScore: f64(score)},
		}
	}
	ref := mk("PROTEO50-REF", "Proteo50", "Proteia", "Whey", 1000, 1)
	isolate := mk("B100", "Whey Isolate", "MuscleCo", "Whey", 1200, 0.8)
	isolate.SearchTerm = strp("protein powder")
	return catalog.NewMemoryStoreWith(
		ref,
		isolate,
		mk("B200", "Pea Protein", "GreenFit", "Vegan", 800, 0.5),
	)
}

// fakeElastic simule les quelques routes utilisées par le client
type fakeElastic struct {
	mu      sync.Mutex
	indexed []string
	bulk    int
	search  func(w http.ResponseWriter)
}

func (f *fakeElastic) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		f.search(w)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		f.bulk = bytes.Count(body, []byte("\n")) / 2
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	case strings.Contains(r.URL.Path, "/_doc/"):
		f.indexed = append(f.indexed, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newElastic(t *testing.T, fake *fakeElastic) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchFallsBackToStoreWithoutElastic(t *testing.T) {
	s := NewSearch(nil, "", fixture())
	assert.False(t, s.Enabled())

	hits, err := s.SearchProducts(context.Background(), "powder")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "B100", hits[0].ASIN)

	hits, err = s.SearchProducts(context.Background(), "vegan")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "B200", hits[0].ASIN)

	require.NoError(t, s.IndexProduct(context.Background(), &models.Product{ASIN: "X"}))
}

func TestSearchRequiresTerm(t *testing.T) {
	_, err := NewSearch(nil, "", fixture()).SearchProducts(context.Background(), "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSearchUsesElasticHits(t *testing.T) {
	fake := &fakeElastic{search: func(w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"hits": []any{
				map[string]any{"_source": map[string]any{"id": 42, "asin": "ES-1", "productName": "From Elastic", "similarityScore": 0.7}},
			}},
		})
	}}
	s := NewSearch(newElastic(t, fake), "products", fixture())

	hits, err := s.SearchProducts(context.Background(), "whey")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(42), hits[0].ID)
	assert.Equal(t, "ES-1", hits[0].ASIN)
	require.NotNil(t, hits[0].SimilarityScore)
	assert.InDelta(t, 0.7, *hits[0].SimilarityScore, 1e-9)
}

func TestSearchFallsBackOnElasticError(t *testing.T) {
	fake := &fakeElastic{search: func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}}
	s := NewSearch(newElastic(t, fake), "products", fixture())

	hits, err := s.SearchProducts(context.Background(), "isolate")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "B100", hits[0].ASIN)
}

func TestSearchFallsBackOnEmptyElasticResult(t *testing.T) {
	fake := &fakeElastic{search: func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	}}
	s := NewSearch(newElastic(t, fake), "products", fixture())

	hits, err := s.SearchProducts(context.Background(), "pea")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "B200", hits[0].ASIN)
}

func TestIndexProductAndIndexAll(t *testing.T) {
	fake := &fakeElastic{}
	store := fixture()
	s := NewSearch(newElastic(t, fake), "products", store)
	ctx := context.Background()

	p, err := store.GetProductByASIN(ctx, "B100")
	require.NoError(t, err)
	require.NoError(t, s.IndexProduct(ctx, p))
	assert.Equal(t, []string{"/products/_doc/2"}, fake.indexed)

	n, err := s.IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, fake.bulk)
}

func TestProductsQueries(t *testing.T) {
	ctx := context.Background()
	svc := NewProducts(fixture(), "PROTEO50-REF")

	ref, err := svc.Reference(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Proteo50", ref.ProductName)

	byBrand, err := svc.ByBrand(ctx, "muscleco")
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "B100", byBrand[0].ASIN)

	byCategory, err := svc.ByCategory(ctx, "Whey")
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	_, err = svc.ByBrand(ctx, "Inconnue")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = svc.ByCategory(ctx, "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.Get(ctx, 999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = svc.GetByASIN(ctx, "NOPE")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.NotNil(t, brands)
}

func TestProductsCategoryTree(t *testing.T) {
	ctx := context.Background()
	store := fixture()
	root := models.Category{Name: "Protéines"}
	require.NoError(t, store.SaveCategory(ctx, &root))
	child := models.Category{Name: "Whey", ParentID: &root.ID}
	require.NoError(t, store.SaveCategory(ctx, &child))

	nodes, err := NewProducts(store, "PROTEO50-REF").CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Protéines", nodes[0].Name)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "Whey", nodes[0].Children[0].Name)
}

func TestWriteReport(t *testing.T) {
	brands := []models.BrandStats{
		{Name: "MuscleCo", ProductCount: 2, AveragePrice: f64(1100), AverageRating: f64(4.5), TotalRevenue: 22000},
	}
	categories := []models.CategoryStats{
		{Name: "Whey", ProductCount: 2, TotalRevenue: 22000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, brands, categories))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "section", rows[0][0])
	assert.Equal(t, []string{"brand", "MuscleCo", "2", "1100.00", "4.50", "", "22000.00"}, rows[1])
	assert.Equal(t, []string{"category", "Whey", "2", "", "", "", "22000.00"}, rows[2])
}

func TestReportObjectName(t *testing.T) {
	at := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "reports/market-report-20261019-150405.csv", ReportObjectName(at))
}

func TestExportWithoutStorage(t *testing.T) {
	an, err := analytics.NewService(fixture(), analytics.DefaultConfig())
	require.NoError(t, err)

	reports := NewReports(nil, "proteia-reports", an)
	assert.False(t, reports.Enabled())
	_, err = reports.Export(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrInternal))
}
