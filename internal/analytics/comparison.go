package analytics

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// ProductComparison confronte Proteo50 aux produits similaires et aux concurrents de sa catégorie
func (s *Service) ProductComparison(ctx context.Context) (*models.ProductComparison, error) {
	ref, err := s.ReferenceProduct(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}

	similar := RankBySimilarity(products, ref.ID, s.cfg.SimilarThreshold, s.cfg.SimilarTopN)
	competitors := Competitors(products, ref, s.cfg.CompetitorThreshold, s.cfg.SimilarThreshold, s.cfg.CompetitorTopN)

	return &models.ProductComparison{
		Proteo50:           ref.Summary(),
		SimilarProducts:    summaries(similar),
		CompetitorProducts: summaries(competitors),
	}, nil
}

// SimilarProducts sert /products/similar ; topN à 0 = pas de plafond
func (s *Service) SimilarProducts(ctx context.Context, threshold float64, topN int) ([]models.ProductSummary, error) {
	if !inUnitRange(threshold) {
		return nil, apperr.Validation("similarityThreshold doit être dans [0,1]")
	}
	if topN < 0 {
		return nil, apperr.Validation("topN ne peut pas être négatif")
	}

	products, err := s.snapshot(ctx, catalog.Filter{MinSimilarity: &threshold})
	if err != nil {
		return nil, err
	}

	var refID int64
	ref, err := s.store.GetProductByASIN(ctx, s.cfg.ReferenceASIN)
	switch {
	case err == nil:
		refID = ref.ID
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, storeError(err, "lecture du produit de référence impossible")
	}
	return summaries(RankBySimilarity(products, refID, threshold, topN)), nil
}

// RankBySimilarity garde les produits (hors référence) dont le score atteint le seuil,
// triés par score décroissant puis id croissant
func RankBySimilarity(products []models.Product, refID int64, threshold float64, topN int) []models.Product {
	ranked := lo.Filter(products, func(p models.Product, _ int) bool {
		score := p.SimilarityScore()
		return p.ID != refID && score != nil && *score >= threshold
	})
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := *ranked[i].SimilarityScore(), *ranked[j].SimilarityScore()
		if si != sj {
			return si > sj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return limit(ranked, topN)
}

// Competitors : même catégorie que la référence, score dans [lower, upper).
// Un score absent compte pour 0. Tri par revenu estimé décroissant (absents en dernier).
func Competitors(products []models.Product, ref *models.Product, lower, upper float64, topN int) []models.Product {
	out := lo.Filter(products, func(p models.Product, _ int) bool {
		if p.ID == ref.ID || !sameName(p.Category, ref.Category) {
			return false
		}
		score := valueOr(p.SimilarityScore(), 0)
		return score >= lower && score < upper
	})
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].EstRevenue, out[j].EstRevenue
		switch {
		case ri != nil && rj == nil:
			return true
		case ri == nil && rj != nil:
			return false
		case ri != nil && rj != nil && *ri != *rj:
			return *ri > *rj
		}
		return out[i].ID < out[j].ID
	})
	return limit(out, topN)
}

func summaries(products []models.Product) []models.ProductSummary {
	return lo.Map(products, func(p models.Product, _ int) models.ProductSummary { return p.Summary() })
}
