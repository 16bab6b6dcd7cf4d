package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/services"
)

type ProductHandler struct {
	products  *services.Products
	search    *services.Search
	analytics *analytics.Service
}

func NewProductHandler(products *services.Products, search *services.Search, svc *analytics.Service) *ProductHandler {
	return &ProductHandler{products: products, search: search, analytics: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.products.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.Validation("id invalide"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) GetByASIN(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.GetByASIN(ctx, c.Param("asin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Similar : ?similarityThreshold=0.5&topN=20 par défaut
func (h *ProductHandler) Similar(c *gin.Context) {
	cfg := h.analytics.Config()
	threshold, err := queryFloat(c, "similarityThreshold", cfg.SearchSimilarThreshold)
	if err != nil {
		respondError(c, err)
		return
	}
	topN, err := queryInt(c, "topN", cfg.SearchSimilarTopN)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.analytics.SimilarProducts(ctx, threshold, topN)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Search(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.search.SearchProducts(ctx, c.Query("searchTerm"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) ByBrand(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.products.ByBrand(ctx, c.Param("brand"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) ByCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.products.ByCategory(ctx, c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Proteo50(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Reference(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Categories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tree, err := h.products.CategoryTree(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *ProductHandler) Brands(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	brands, err := h.products.Brands(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}
