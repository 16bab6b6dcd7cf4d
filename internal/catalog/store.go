package catalog

import (
	"context"
	"math"
	"strings"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

// Store est le contrat de lecture consommé par le service d'agrégation.
// Chaque produit est renvoyé avec ses sous-fiches déjà jointes.
type Store interface {
	ListProducts(ctx context.Context, filter Filter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByASIN(ctx context.Context, asin string) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

// Writer est utilisé par l'import en masse
type Writer interface {
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SaveCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	SaveBrand(ctx context.Context, b *models.Brand) error
}

// ReadWriter regroupe les deux contrats
type ReadWriter interface {
	Store
	Writer
}

// validateProduct est appliqué par tous les stores avant écriture
func validateProduct(p *models.Product) error {
	if p.ASIN == "" {
		return apperr.Validation("ASIN obligatoire")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return apperr.Validation("prix invalide pour %s: %v", p.ASIN, p.Price)
	}
	return nil
}

// Filter : tous les champs vides signifient "pas de filtre"
type Filter struct {
	Brand         string
	Category      string
	Search        string
	MinSimilarity *float64
}

// Match applique le filtre en mémoire
func (f Filter) Match(p *models.Product) bool {
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinSimilarity != nil {
		score := p.SimilarityScore()
		if score == nil || *score < *f.MinSimilarity {
			return false
		}
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		fields := []string{p.ProductName, p.Brand, p.Category}
		if p.SearchTerm != nil {
			fields = append(fields, *p.SearchTerm)
		}
		found := false
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
