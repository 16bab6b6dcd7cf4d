package analytics

import (
	"context"
	"sort"

	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// MarketOverview : vue globale du marché, brandStats plafonné à OverviewBrandLimit
func (s *Service) MarketOverview(ctx context.Context) (*models.MarketOverview, error) {
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return Overview(products, s.cfg.OverviewBrandLimit), nil
}

func (s *Service) BrandAnalysis(ctx context.Context) ([]models.BrandStats, error) {
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return BrandStatsOf(products), nil
}

func (s *Service) CategoryAnalysis(ctx context.Context) ([]models.CategoryStats, error) {
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return CategoryStatsOf(products), nil
}

// Overview agrège une liste de produits. brandLimit à 0 = pas de plafond.
func Overview(products []models.Product, brandLimit int) *models.MarketOverview {
	return &models.MarketOverview{
		TotalProducts: len(products),
		AveragePrice:  mean(prices(products)),
		AverageRating: mean(ratings(products)),
		TotalRevenue:  sum(revenues(products)),
		CategoryStats: CategoryStatsOf(products),
		BrandStats:    limit(BrandStatsOf(products), brandLimit),
	}
}

// CategoryStatsOf : tri par revenu desc, puis nombre de produits desc, puis nom
func CategoryStatsOf(products []models.Product) []models.CategoryStats {
	groups := groupByName(products, categoryOf)

	stats := make([]models.CategoryStats, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, models.CategoryStats{
			Name:         g.name,
			ProductCount: len(g.products),
			AveragePrice: mean(prices(g.products)),
			TotalRevenue: sum(revenues(g.products)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return statsLess(stats[i].TotalRevenue, stats[j].TotalRevenue,
			stats[i].ProductCount, stats[j].ProductCount, stats[i].Name, stats[j].Name)
	})
	return stats
}

func BrandStatsOf(products []models.Product) []models.BrandStats {
	groups := groupByName(products, brandOf)

	stats := make([]models.BrandStats, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, models.BrandStats{
			Name:           g.name,
			ProductCount:   len(g.products),
			AveragePrice:   mean(prices(g.products)),
			AverageRating:  mean(ratings(g.products)),
			TotalRevenue:   sum(revenues(g.products)),
			AverageProtein: mean(proteins(g.products)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return statsLess(stats[i].TotalRevenue, stats[j].TotalRevenue,
			stats[i].ProductCount, stats[j].ProductCount, stats[i].Name, stats[j].Name)
	})
	return stats
}

func statsLess(revA, revB float64, countA, countB int, nameA, nameB string) bool {
	if revA != revB {
		return revA > revB
	}
	if countA != countB {
		return countA > countB
	}
	return nameA < nameB
}
