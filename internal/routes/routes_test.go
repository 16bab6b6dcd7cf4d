package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/cache"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
	"proteia_back_end/internal/services"
	"proteia_back_end/internal/utils"
)

func f64(v float64) *float64 { return &v }

type testServer struct {
	router *gin.Engine
	users  *auth.GormStore
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mk := func(asin, name, brand, category string, price, score, protein float64) models.Product {
		return models.Product{
			ASIN: asin, ProductName: name, Brand: brand, Category: category,
			Price: price, Rating: f64(4.5), EstRevenue: f64(price * 10),
			NutritionalInfo: &models.NutritionalInfo{Protein: f64(protein)},
			Analysis:        &models.ProductAnalysis{SimilarityScore: f64(score)},
		}
	}
	store := catalog.NewMemoryStoreWith(
		mk("PROTEO50-REF", "Proteo50", "Proteia", "Whey", 1000, 1, 50),
		mk("B100", "Whey Isolate", "MuscleCo", "Whey", 1200, 0.8, 80),
		mk("B200", "Pea Protein", "GreenFit", "Vegan", 800, 0.5, 70),
	)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := auth.NewGormStore(db)
	require.NoError(t, users.Migrate())
	require.NoError(t, users.SeedRoles(context.Background()))

	redis := cache.New(nil)
	an, err := analytics.NewService(store, analytics.DefaultConfig())
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Auth:      auth.NewService(users, redis, auth.Options{Secret: "test-secret", TokenTTL: time.Hour}),
		Analytics: an,
		Products:  services.NewProducts(store, an.Config().ReferenceASIN),
		Search:    services.NewSearch(nil, "products", store),
		Reports:   services.NewReports(nil, "proteia-reports", an),
		Cache:     redis,
		CacheTTL:  time.Minute,
		Health:    map[string]bool{"redis": false},
	})
	return &testServer{router: r, users: users}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, email string) auth.LoginResult {
	t.Helper()
	w := s.do("POST", "/api/auth/register", "", fmt.Sprintf(`{"name":"Test","email":%q,"password":"proteo2024"}`, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[auth.LoginResult](t, w)
}

func (s *testServer) loginAs(t *testing.T, email, role string) string {
	t.Helper()
	hash, err := utils.HashPassword("proteo2024")
	require.NoError(t, err)
	require.NoError(t, s.users.CreateUser(context.Background(), &models.User{Name: role, Email: email, PasswordHash: hash}, role))

	w := s.do("POST", "/api/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"proteo2024"}`, email))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[auth.LoginResult](t, w).Token
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"redis":false}}`, w.Body.String())
}

func TestDashboardRequiresToken(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/api/dashboard/market-overview", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/api/products", "garbage", "").Code)
}

func TestDashboardViews(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "viewer@proteia.test").Token

	w := s.do("GET", "/api/dashboard/market-overview", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	overview := decode[models.MarketOverview](t, w)
	assert.Equal(t, 3, overview.TotalProducts)
	require.NotNil(t, overview.AveragePrice)
	assert.InDelta(t, 1000, *overview.AveragePrice, 1e-9)

	w = s.do("GET", "/api/dashboard/product-comparison", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	comparison := decode[models.ProductComparison](t, w)
	assert.Equal(t, "PROTEO50-REF", comparison.Proteo50.ASIN)

	for _, path := range []string{
		"/api/dashboard/prospect-ranking",
		"/api/dashboard/brand-analysis",
		"/api/dashboard/category-analysis",
		"/api/dashboard/brand-revenue",
	} {
		assert.Equal(t, http.StatusOK, s.do("GET", path, token, "").Code, path)
	}

	w = s.do("GET", "/api/dashboard/price-distribution?bounds=500,1000", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	dist := decode[models.PriceDistribution](t, w)
	total := 0
	for _, band := range dist.Bands {
		total += band.Total
	}
	assert.Equal(t, 3, total)

	assert.Equal(t, http.StatusBadRequest, s.do("GET", "/api/dashboard/price-distribution?bounds=a", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do("GET", "/api/dashboard/brand-revenue?topK=-1", token, "").Code)
}

func TestProductRoutes(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "viewer@proteia.test").Token

	cases := []struct {
		path   string
		status int
	}{
		{"/api/products", http.StatusOK},
		{"/api/products/1", http.StatusOK},
		{"/api/products/999", http.StatusNotFound},
		{"/api/products/abc", http.StatusBadRequest},
		{"/api/products/asin/B100", http.StatusOK},
		{"/api/products/asin/NOPE", http.StatusNotFound},
		{"/api/products/similar?similarityThreshold=2", http.StatusBadRequest},
		{"/api/products/similar?topN=-1", http.StatusBadRequest},
		{"/api/products/similar?similarityThreshold=NaN", http.StatusBadRequest},
		{"/api/products/search", http.StatusBadRequest},
		{"/api/products/brand/Inconnue", http.StatusNotFound},
		{"/api/products/category/Whey", http.StatusOK},
		{"/api/products/proteo50", http.StatusOK},
		{"/api/categories", http.StatusOK},
		{"/api/brands", http.StatusOK},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, s.do("GET", tc.path, token, "").Code, tc.path)
	}

	w := s.do("GET", "/api/products/similar", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	similar := decode[[]models.ProductSummary](t, w)
	require.Len(t, similar, 2)
	assert.Equal(t, "B100", similar[0].ASIN)
	assert.Equal(t, "B200", similar[1].ASIN)

	w = s.do("GET", "/api/products/search?searchTerm=pea", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.ProductSummary](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "B200", found[0].ASIN)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	s := newServer(t)
	viewer := s.register(t, "viewer@proteia.test").Token
	admin := s.loginAs(t, "admin@proteia.test", models.RoleAdmin)
	analyst := s.loginAs(t, "analyst@proteia.test", models.RoleAnalyst)

	assert.Equal(t, http.StatusForbidden, s.do("POST", "/api/dashboard/cache/invalidate", viewer, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do("POST", "/api/dashboard/cache/invalidate", analyst, "").Code)

	w := s.do("POST", "/api/dashboard/cache/invalidate", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"invalidated":0,"enabled":false}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, s.do("POST", "/api/dashboard/reports/export", viewer, "").Code)
	// pas de MinIO dans les tests
	assert.Equal(t, http.StatusInternalServerError, s.do("POST", "/api/dashboard/reports/export", analyst, "").Code)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "ana@proteia.test")

	assert.Equal(t, http.StatusBadRequest, s.do("POST", "/api/auth/register", "", `{"name":"Ana","email":"ana@proteia.test","password":"proteo2024"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("POST", "/api/auth/login", "", `{"email":"ana@proteia.test","password":"mauvais123"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do("POST", "/api/auth/login", "", `{}`).Code)

	w := s.do("GET", "/api/auth/me", reg.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roles":["Viewer"]`)

	w = s.do("POST", "/api/auth/refresh", "", fmt.Sprintf(`{"refreshToken":%q}`, reg.RefreshToken))
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[auth.LoginResult](t, w)
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/api/auth/me", reg.Token, "").Code)

	assert.Equal(t, http.StatusOK, s.do("POST", "/api/auth/logout", rotated.Token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/api/auth/me", rotated.Token, "").Code)
}
