package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/cache"
	"proteia_back_end/internal/models"
	"proteia_back_end/internal/services"
)

// DashboardHandler sert les vues agrégées, mises en cache dans Redis
type DashboardHandler struct {
	analytics *analytics.Service
	cache     *cache.Redis
	ttl       time.Duration
	reports   *services.Reports
}

func NewDashboardHandler(svc *analytics.Service, redis *cache.Redis, ttl time.Duration, reports *services.Reports) *DashboardHandler {
	return &DashboardHandler{analytics: svc, cache: redis, ttl: ttl, reports: reports}
}

// cached sert une vue via le cache-aside
func cached[T any](h *DashboardHandler, c *gin.Context, key string, load func(ctx context.Context) (T, error)) {
	ctx, cancel := requestContext(c)
	defer cancel()

	value, err := cache.Remember(ctx, h.cache, key, h.ttl, func() (T, error) {
		return load(ctx)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

func (h *DashboardHandler) MarketOverview(c *gin.Context) {
	cached(h, c, cache.DashboardKey("market-overview"), h.analytics.MarketOverview)
}

func (h *DashboardHandler) ProductComparison(c *gin.Context) {
	cached(h, c, cache.DashboardKey("product-comparison"), h.analytics.ProductComparison)
}

func (h *DashboardHandler) ProspectRanking(c *gin.Context) {
	cached(h, c, cache.DashboardKey("prospect-ranking"), h.analytics.ProspectRanking)
}

func (h *DashboardHandler) BrandAnalysis(c *gin.Context) {
	cached(h, c, cache.DashboardKey("brand-analysis"), h.analytics.BrandAnalysis)
}

func (h *DashboardHandler) CategoryAnalysis(c *gin.Context) {
	cached(h, c, cache.DashboardKey("category-analysis"), h.analytics.CategoryAnalysis)
}

// PriceDistribution accepte ?bounds=500,1000,1500 ; sinon les bornes configurées
func (h *DashboardHandler) PriceDistribution(c *gin.Context) {
	bounds, err := queryFloats(c, "bounds")
	if err != nil {
		respondError(c, err)
		return
	}
	if len(bounds) == 0 {
		bounds = h.analytics.Config().PriceBounds
	}
	params := make([]string, 0, len(bounds))
	for _, b := range bounds {
		params = append(params, strconv.FormatFloat(b, 'f', -1, 64))
	}

	key := cache.DashboardKey("price-distribution", strings.Join(params, ","))
	cached(h, c, key, func(ctx context.Context) (*models.PriceDistribution, error) {
		return h.analytics.PriceDistribution(ctx, bounds)
	})
}

func (h *DashboardHandler) BrandRevenue(c *gin.Context) {
	topK, err := queryInt(c, "topK", h.analytics.Config().BrandRevenueTopK)
	if err != nil {
		respondError(c, err)
		return
	}
	key := cache.DashboardKey("brand-revenue", fmt.Sprint(topK))
	cached(h, c, key, func(ctx context.Context) ([]models.BrandRevenue, error) {
		return h.analytics.BrandRevenue(ctx, topK)
	})
}

// InvalidateCache vide toutes les vues (après un import par exemple)
func (h *DashboardHandler) InvalidateCache(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	deleted, err := h.cache.InvalidateDashboard(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": deleted, "enabled": h.cache.Enabled()})
}

func (h *DashboardHandler) ExportReport(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := h.reports.Export(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
