package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// PriceBand : borne basse incluse, borne haute exclue, Max nil = non borné
type PriceBand struct {
	Min   float64
	Max   *float64
	Label string
}

func (b PriceBand) contains(price float64) bool {
	return price >= b.Min && (b.Max == nil || price < *b.Max)
}

// PriceBands est une partition validée de [0, ∞)
type PriceBands []PriceBand

// NewPriceBands vérifie que les tranches couvrent [0, ∞) sans trou ni chevauchement
func NewPriceBands(bands []PriceBand) (PriceBands, error) {
	if len(bands) == 0 {
		return nil, apperr.Validation("au moins une tranche de prix est requise")
	}
	if bands[0].Min != 0 {
		return nil, apperr.Validation("la première tranche doit commencer à 0")
	}
	for i, b := range bands {
		if !finite(b.Min) || (b.Max != nil && !finite(*b.Max)) {
			return nil, apperr.Validation("tranche %d : bornes non finies", i)
		}
		last := i == len(bands)-1
		if last && b.Max != nil {
			return nil, apperr.Validation("la dernière tranche doit être non bornée")
		}
		if !last {
			if b.Max == nil {
				return nil, apperr.Validation("seule la dernière tranche peut être non bornée")
			}
			if *b.Max <= b.Min {
				return nil, apperr.Validation("tranche %d : borne haute %v <= borne basse %v", i, *b.Max, b.Min)
			}
			if bands[i+1].Min != *b.Max {
				return nil, apperr.Validation("tranches %d et %d non contiguës", i, i+1)
			}
		}
	}

	out := make(PriceBands, len(bands))
	copy(out, bands)
	for i := range out {
		if out[i].Label == "" {
			out[i].Label = bandLabel(out[i].Min, out[i].Max)
		}
	}
	return out, nil
}

// BandsFromBounds construit les tranches à partir des bornes intermédiaires :
// [500, 1000] donne 0-500, 500-1000, 1000+
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func BandsFromBounds(bounds []float64) (PriceBands, error) {
	bands := make([]PriceBand, 0, len(bounds)+1)
	lower := 0.0
	for _, b := range bounds {
		upper := b
		bands = append(bands, PriceBand{Min: lower, Max: &upper})
		lower = b
	}
	bands = append(bands, PriceBand{Min: lower})
	return NewPriceBands(bands)
}

func DefaultPriceBands() PriceBands {
	bands, _ := BandsFromBounds(DefaultConfig().PriceBounds)
	return bands
}

// Locate retourne l'indice de la tranche, -1 pour un prix négatif ou NaN
func (bands PriceBands) Locate(price float64) int {
	for i, b := range bands {
		if b.contains(price) {
			return i
		}
	}
	return -1
}

func bandLabel(lower float64, upper *float64) string {
	if upper == nil {
		return "$" + decimal.NewFromFloat(lower).String() + "+"
	}
	return "$" + decimal.NewFromFloat(lower).String() + "-" + decimal.NewFromFloat(*upper).String()
}

// PriceDistribution sert /dashboard/price-distribution ; bounds vide = tranches par défaut
func (s *Service) PriceDistribution(ctx context.Context, bounds []float64) (*models.PriceDistribution, error) {
	if len(bounds) == 0 {
		bounds = s.cfg.PriceBounds
	}
	bands, err := BandsFromBounds(bounds)
	if err != nil {
		return nil, err
	}
	products, err := s.snapshot(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	return Distribute(products, bands)
}

// Distribute place chaque produit dans exactement une tranche ; la somme des
// totaux vaut len(products). Un prix hors de [0, ∞) est refusé.
func Distribute(products []models.Product, bands PriceBands) (*models.PriceDistribution, error) {
	groups := groupByName(products, categoryOf)
	categories := lo.Map(groups, func(g namedGroup, _ int) string { return g.name })
	sort.Strings(categories)

	dist := &models.PriceDistribution{
		Bands:      make([]models.PriceBandCount, len(bands)),
		Categories: categories,
	}
	for i, b := range bands {
		byCategory := make(map[string]int, len(categories))
		for _, c := range categories {
			byCategory[c] = 0
		}
		dist.Bands[i] = models.PriceBandCount{
			Label:      b.Label,
			Min:        b.Min,
			Max:        b.Max,
			ByCategory: byCategory,
		}
	}

	for _, g := range groups {
		for _, p := range g.products {
			i := bands.Locate(p.Price)
			if i < 0 {
				return nil, apperr.Validation("prix hors tranche pour %s: %v", p.ASIN, p.Price)
			}
			dist.Bands[i].Total++
			dist.Bands[i].ByCategory[g.name]++
		}
	}
	return dist, nil
}
