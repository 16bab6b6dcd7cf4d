package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

const (
	reasonSimilarity = "high similarity"
	reasonProtein    = "high protein"
	reasonPrice      = "lower price"
)

// ProspectRanking classe les prospects et les catégories sous-exploitées.
// Sans produit de référence, la liste reste calculée et les opportunités n'ont pas d'indice.
func (s *Service) ProspectRanking(ctx context.Context) (*models.ProspectRanking, error) {
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}

	ref, err := s.store.GetProductByASIN(ctx, s.cfg.ReferenceASIN)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, storeError(err, "lecture du produit de référence impossible")
	}

	return &models.ProspectRanking{
		TopProspects:        RankProspects(products, ref, s.cfg),
		MarketOpportunities: MarketOpportunities(products, ref, s.cfg),
	}, nil
}

type scoredProspect struct {
	product models.Product
	score   float64
	factors []factor
}

type factor struct {
	label string
	value float64
}

// RankProspects : score = wS·similarité + wP·protéine/max + wC·(1 − prix/max).
// Une entrée absente contribue 0.
func RankProspects(products []models.Product, ref *models.Product, cfg Config) []models.Prospect {
	candidates := lo.Filter(products, func(p models.Product, _ int) bool {
		if ref != nil && p.ID == ref.ID {
			return false
		}
		score := p.SimilarityScore()
		return score != nil && *score >= cfg.ProspectMinSimilarity
	})

	maxProtein := maxOf(proteins(candidates))
	maxPrice := maxOf(prices(candidates))
	w := cfg.ProspectWeights

	scored := lo.Map(candidates, func(p models.Product, _ int) scoredProspect {
		sim := w.Similarity * valueOr(p.SimilarityScore(), 0)

		var protein float64
		if v := p.Protein(); v != nil && maxProtein > 0 {
			protein = w.Protein * (*v / maxProtein)
		}

		var price float64
		if maxPrice > 0 {
			price = w.Price * (1 - p.Price/maxPrice)
		}

		return scoredProspect{
			product: p,
			score:   sim + protein + price,
			factors: []factor{{reasonSimilarity, sim}, {reasonProtein, protein}, {reasonPrice, price}},
		}
	})

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.ID < scored[j].product.ID
	})
	scored = limit(scored, cfg.ProspectTopN)

	return lo.Map(scored, func(sp scoredProspect, _ int) models.Prospect {
		p := sp.product
		var segment *string
		if p.Analysis != nil {
			segment = p.Analysis.IntendedSegment
		}
		return models.Prospect{
			ID:                p.ID,
			ProductName:       p.ProductName,
			Brand:             p.Brand,
			Price:             p.Price,
			SimilarityScore:   p.SimilarityScore(),
			Protein:           p.Protein(),
			IntendedSegment:   segment,
			ProspectScore:     round4(sp.score),
			OpportunityReason: opportunityReason(sp.factors),
		}
	})
}

// opportunityReason nomme le facteur dominant, puis le second s'il pèse au moins la moitié
func opportunityReason(factors []factor) string {
	sorted := append([]factor(nil), factors...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].value > sorted[j].value })

	top := sorted[0]
	if top.value <= 0 {
		return "low signal"
	}
	parts := []string{top.label}
	if len(sorted) > 1 && sorted[1].value > 0 && sorted[1].value >= top.value/2 {
		parts = append(parts, sorted[1].label)
	}
	return strings.Join(parts, ", ")
}

// MarketOpportunities compare le revenu par produit de chaque catégorie à celui
// de la catégorie de référence. Le produit de référence est exclu des agrégats.
func MarketOpportunities(products []models.Product, ref *models.Product, cfg Config) []models.MarketOpportunity {
	pool := products
	if ref != nil {
		pool = lo.Filter(products, func(p models.Product, _ int) bool { return p.ID != ref.ID })
	}
	groups := groupByName(pool, categoryOf)
	isRefCategory := func(name string) bool { return ref != nil && sameName(name, ref.Category) }

	var baseline float64
	for _, g := range groups {
		if isRefCategory(g.name) {
			baseline = sum(revenues(g.products)) / float64(len(g.products))
		}
	}

	out := make([]models.MarketOpportunity, 0, len(groups))
	for _, g := range groups {
		if isRefCategory(g.name) {
			continue
		}
		name, group := g.name, g.products
		revenue := sum(revenues(group))
		perProduct := revenue / float64(len(group))

		opp := models.MarketOpportunity{
			Category:          name,
			PotentialRevenue:  revenue,
			ProductCount:      len(group),
			AveragePrice:      mean(prices(group)),
			RevenuePerProduct: round2(perProduct),
		}

		if baseline > 0 {
			index := perProduct / baseline
			if index < cfg.OpportunityIndexThreshold {
				continue
			}
			rounded := round2(index)
			opp.OpportunityIndex = &rounded
			opp.Description = fmt.Sprintf("%d products earning %s per product, %sx the reference category",
				len(group), decimal.NewFromFloat(perProduct).StringFixed(2), decimal.NewFromFloat(index).StringFixed(2))
		} else {
			if revenue <= 0 {
				continue
			}
			opp.Description = fmt.Sprintf("%d products earning %s per product",
				len(group), decimal.NewFromFloat(perProduct).StringFixed(2))
		}
		out = append(out, opp)
	}

	sort.Slice(out, func(i, j int) bool {
		ii, ij := valueOr(out[i].OpportunityIndex, 0), valueOr(out[j].OpportunityIndex, 0)
		if ii != ij {
			return ii > ij
		}
		if out[i].PotentialRevenue != out[j].PotentialRevenue {
			return out[i].PotentialRevenue > out[j].PotentialRevenue
		}
		return out[i].Category < out[j].Category
	})
	return limit(out, cfg.OpportunityTopN)
}

func maxOf(values []*float64) float64 {
	present := lo.FilterMap(values, func(v *float64, _ int) (float64, bool) {
		if v == nil || *v < 0 {
			return 0, false
		}
		return *v, true
	})
	if len(present) == 0 {
		return 0
	}
	return lo.Max(present)
}
