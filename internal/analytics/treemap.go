package analytics

import (
	"context"
	"sort"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// BrandRevenue alimente le treemap ; topK à 0 = toutes les marques
func (s *Service) BrandRevenue(ctx context.Context, topK int) ([]models.BrandRevenue, error) {
	if topK < 0 {
		return nil, apperr.Validation("top ne peut pas être négatif")
	}
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return limit(BrandRevenueOf(products, s.cfg.DisplayNameBudget), topK), nil
}

// BrandRevenueOf : tri par revenu décroissant puis nom
func BrandRevenueOf(products []models.Product, nameBudget int) []models.BrandRevenue {
	groups := groupByName(products, brandOf)

	out := make([]models.BrandRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.BrandRevenue{
			Name:          g.name,
			DisplayName:   DisplayName(g.name, nameBudget),
			TotalRevenue:  sum(revenues(g.products)),
			AverageRating: mean(ratings(g.products)),
			AveragePrice:  mean(prices(g.products)),
			TotalSales:    sumInts(sales(g.products)),
			ProductCount:  len(g.products),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DisplayName tronque pour l'affichage uniquement
func DisplayName(name string, budget int) string {
	runes := []rune(name)
	if budget <= 0 || len(runes) <= budget {
		return name
	}
	return string(runes[:budget]) + "..."
}
