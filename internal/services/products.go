package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// Products expose la consultation du catalogue (fiches, marques, catégories)
type Products struct {
	store         catalog.Store
	referenceASIN string
}

func NewProducts(store catalog.Store, referenceASIN string) *Products {
	return &Products{store: store, referenceASIN: referenceASIN}
}

func wrapStore(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	zap.L().Error("❌ "+msg, zap.Error(err))
	return apperr.Internal(err, "%s", msg)
}

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx, catalog.Filter{})
	if err != nil {
		return nil, wrapStore(err, "lecture des produits impossible")
	}
	return products, nil
}

func (s *Products) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, wrapStore(err, "lecture du produit impossible")
	}
	return p, nil
}

func (s *Products) GetByASIN(ctx context.Context, asin string) (*models.Product, error) {
	asin = strings.TrimSpace(asin)
	if asin == "" {
		return nil, apperr.Validation("asin requis")
	}
	p, err := s.store.GetProductByASIN(ctx, asin)
	if err != nil {
		return nil, wrapStore(err, "lecture du produit impossible")
	}
	return p, nil
}

// Reference retourne la fiche Proteo50
func (s *Products) Reference(ctx context.Context) (*models.Product, error) {
	return s.GetByASIN(ctx, s.referenceASIN)
}

// ByBrand : une marque sans produit est considérée inconnue
func (s *Products) ByBrand(ctx context.Context, brand string) ([]models.ProductSummary, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, apperr.Validation("marque requise")
	}
	return s.summaries(ctx, catalog.Filter{Brand: brand}, "marque %s introuvable", brand)
}

func (s *Products) ByCategory(ctx context.Context, category string) ([]models.ProductSummary, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("catégorie requise")
	}
	return s.summaries(ctx, catalog.Filter{Category: category}, "catégorie %s introuvable", category)
}

func (s *Products) summaries(ctx context.Context, filter catalog.Filter, notFound string, arg string) ([]models.ProductSummary, error) {
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, wrapStore(err, "lecture des produits impossible")
	}
	if len(products) == 0 {
		return nil, apperr.NotFound(notFound, arg)
	}
	out := make([]models.ProductSummary, 0, len(products))
	for i := range products {
		out = append(out, products[i].Summary())
	}
	return out, nil
}

// CategoryTree retourne la hiérarchie imbriquée des catégories
func (s *Products) CategoryTree(ctx context.Context) ([]*models.CategoryNode, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, wrapStore(err, "lecture des catégories impossible")
	}
	tree, err := catalog.NewCategoryTree(categories)
	if err != nil {
		return nil, err
	}
	return tree.Nodes(), nil
}

func (s *Products) Brands(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.store.ListBrands(ctx)
	if err != nil {
		return nil, wrapStore(err, "lecture des marques impossible")
	}
	if brands == nil {
		brands = []models.Brand{}
	}
	return brands, nil
}
