package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/cache"
	"proteia_back_end/internal/handlers"
	"proteia_back_end/internal/middleware"
	"proteia_back_end/internal/models"
	"proteia_back_end/internal/services"
)

// Deps regroupe les services câblés par main
type Deps struct {
	Auth      *auth.Service
	Analytics *analytics.Service
	Products  *services.Products
	Search    *services.Search
	Reports   *services.Reports
	Cache     *cache.Redis
	CacheTTL  time.Duration
	Health    map[string]bool
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", handlers.Health(d.Health))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(d.Cache))

	// Auth
	authH := handlers.NewAuthHandler(d.Auth)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authH.Register)
	authGroup.POST("/login", middleware.LoginRateLimit(d.Cache), authH.Login)
	authGroup.POST("/refresh", authH.Refresh)
	authGroup.POST("/logout", middleware.AuthRequired(d.Auth), authH.Logout)
	authGroup.GET("/me", middleware.AuthRequired(d.Auth), authH.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(d.Auth))

	// Dashboard
	dash := handlers.NewDashboardHandler(d.Analytics, d.Cache, d.CacheTTL, d.Reports)
	dashboard := protected.Group("/dashboard")
	dashboard.GET("/market-overview", dash.MarketOverview)
	dashboard.GET("/product-comparison", dash.ProductComparison)
	dashboard.GET("/prospect-ranking", dash.ProspectRanking)
	dashboard.GET("/brand-analysis", dash.BrandAnalysis)
	dashboard.GET("/category-analysis", dash.CategoryAnalysis)
	dashboard.GET("/price-distribution", dash.PriceDistribution)
	dashboard.GET("/brand-revenue", dash.BrandRevenue)
	dashboard.POST("/cache/invalidate",
		middleware.RequireRole(models.RoleAdmin),
		middleware.AuditAction(middleware.ActionCacheInvalidate),
		dash.InvalidateCache)
	dashboard.POST("/reports/export",
		middleware.RequireRole(models.RoleAnalyst, models.RoleAdmin),
		middleware.AuditAction(middleware.ActionReportExport),
		dash.ExportReport)

	// Produits
	prod := handlers.NewProductHandler(d.Products, d.Search, d.Analytics)
	products := protected.Group("/products")
	products.GET("", prod.List)
	products.GET("/similar", prod.Similar)
	products.GET("/search", prod.Search)
	products.GET("/proteo50", prod.Proteo50)
	products.GET("/asin/:asin", prod.GetByASIN)
	products.GET("/brand/:brand", prod.ByBrand)
	products.GET("/category/:category", prod.ByCategory)
	products.GET("/:id", prod.Get)

	protected.GET("/categories", prod.Categories)
	protected.GET("/brands", prod.Brands)
}
