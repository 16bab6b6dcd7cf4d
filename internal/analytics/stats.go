package analytics

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"proteia_back_end/internal/models"
)

// inUnitRange refuse aussi NaN
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// round2 arrondit au centime, comme les DTO du dashboard
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// mean ignore les valeurs absentes ; nil quand il n'y a rien à moyenner
func mean(values []*float64) *float64 {
	present := lo.Compact(values)
	if len(present) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, v := range present {
		total = total.Add(decimal.NewFromFloat(*v))
	}
	avg := total.Div(decimal.NewFromInt(int64(len(present)))).Round(2).InexactFloat64()
	return &avg
}

func sum(values []*float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if v != nil {
			total = total.Add(decimal.NewFromFloat(*v))
		}
	}
	return total.Round(2).InexactFloat64()
}

func sumInts(values []*int) int {
	total := 0
	for _, v := range values {
		if v != nil {
			total += *v
		}
	}
	return total
}

// groupKey range les clés vides sous "unspecified"
func groupKey(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.Unspecified
	}
	return s
}

// namedGroup garde l'ordre d'apparition des groupes
type namedGroup struct {
	name     string
	products []models.Product
}

func categoryOf(p models.Product) string { return p.Category }

func brandOf(p models.Product) string { return p.Brand }

// groupByName regroupe sans tenir compte de la casse. Le nom retenu est la
// première graphie rencontrée dans l'ordre des produits.
func groupByName(products []models.Product, field func(models.Product) string) []namedGroup {
	index := map[string]int{}
	var out []namedGroup
	for _, p := range products {
		name := groupKey(field(p))
		fold := strings.ToLower(name)
		i, ok := index[fold]
		if !ok {
			i = len(out)
			index[fold] = i
			out = append(out, namedGroup{name: name})
		}
		out[i].products = append(out[i].products, p)
	}
	return out
}

// sameName compare deux marques ou catégories comme groupByName
func sameName(a, b string) bool {
	return strings.EqualFold(groupKey(a), groupKey(b))
}

func prices(products []models.Product) []*float64 {
	return lo.Map(products, func(p models.Product, _ int) *float64 {
		price := p.Price
		return &price
	})
}

func ratings(products []models.Product) []*float64 {
	return lo.Map(products, func(p models.Product, _ int) *float64 { return p.Rating })
}

func revenues(products []models.Product) []*float64 {
	return lo.Map(products, func(p models.Product, _ int) *float64 { return p.EstRevenue })
}

func proteins(products []models.Product) []*float64 {
	return lo.Map(products, func(p models.Product, _ int) *float64 { return p.Protein() })
}

func sales(products []models.Product) []*int {
	return lo.Map(products, func(p models.Product, _ int) *int { return p.EstSales })
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
