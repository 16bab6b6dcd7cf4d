package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proteia_back_end/internal/apperr"
)

func TestDistributeScenario(t *testing.T) {
	products := build(
		item{price: 100, category: "A"},
		item{price: 600, category: "B"},
		item{price: 1600, category: "A"},
	)
	bands, err := BandsFromBounds([]float64{500, 1500})
	require.NoError(t, err)

	dist, err := Distribute(products, bands)
	require.NoError(t, err)
	require.Len(t, dist.Bands, 3)

	totals := []int{}
	perCategory := map[string]int{}
	for _, b := range dist.Bands {
		totals = append(totals, b.Total)
		for c, n := range b.ByCategory {
			perCategory[c] += n
		}
	}
	assert.Equal(t, []int{1, 1, 1}, totals)
	assert.Equal(t, 2, perCategory["A"])
	assert.Equal(t, 1, perCategory["B"])
	assert.Equal(t, []string{"A", "B"}, dist.Categories)

	assert.Equal(t, "$0-500", dist.Bands[0].Label)
	assert.Equal(t, "$500-1500", dist.Bands[1].Label)
	assert.Equal(t, "$1500+", dist.Bands[2].Label)
	assert.Nil(t, dist.Bands[2].Max)
}

func TestDistributeEveryProductInOneBand(t *testing.T) {
	products := build(
		item{price: 0, category: "A"},
		item{price: 500, category: "A"},
		item{price: 499.99, category: "B"},
		item{price: 2000, category: ""},
		item{price: 99999, category: "B"},
		item{category: "A"},
	)

	dist, err := Distribute(products, DefaultPriceBands())
	require.NoError(t, err)
	require.Len(t, dist.Bands, 5)

	total := 0
	for _, b := range dist.Bands {
		total += b.Total
	}
	assert.Equal(t, len(products), total)

	assert.Equal(t, 3, dist.Bands[0].Total)
	assert.Equal(t, 1, dist.Bands[1].Total)
	assert.Equal(t, 2, dist.Bands[4].Total)
	assert.Equal(t, 1, dist.Bands[4].ByCategory["unspecified"])
	assert.Equal(t, 0, dist.Bands[2].ByCategory["A"])
	assert.Equal(t, "$2000+", dist.Bands[4].Label)
}

func TestDistributeRejectsPriceOutsideBands(t *testing.T) {
	for _, price := range []float64{-3, math.NaN()} {
		_, err := Distribute(build(item{price: 10}, item{price: price}), DefaultPriceBands())
		assert.True(t, errors.Is(err, apperr.ErrValidation), "prix %v", price)
	}
}

func TestNewPriceBandsValidation(t *testing.T) {
	p := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		bands []PriceBand
	}{
		{"vide", nil},
		{"ne commence pas à 0", []PriceBand{{Min: 10}}},
		{"trou", []PriceBand{{Min: 0, Max: p(100)}, {Min: 200}}},
		{"chevauchement", []PriceBand{{Min: 0, Max: p(100)}, {Min: 50}}},
		{"dernière bornée", []PriceBand{{Min: 0, Max: p(100)}}},
		{"intermédiaire non bornée", []PriceBand{{Min: 0}, {Min: 100}}},
		{"tranche vide", []PriceBand{{Min: 0, Max: p(0)}, {Min: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriceBands(tt.bands)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
		})
	}

	bands, err := NewPriceBands([]PriceBand{{Min: 0, Max: p(10), Label: "cheap"}, {Min: 10}})
	require.NoError(t, err)
	assert.Equal(t, "cheap", bands[0].Label)
	assert.Equal(t, "$10+", bands[1].Label)
	assert.Equal(t, 1, bands.Locate(10))
	assert.Equal(t, -1, bands.Locate(-1))
}

func TestServicePriceDistribution(t *testing.T) {
	svc := newService(t, build(
		item{price: 100, category: "A"},
		item{price: 2500, category: "A"},
	))
	ctx := context.Background()

	dist, err := svc.PriceDistribution(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, dist.Bands, 5)

	dist, err = svc.PriceDistribution(ctx, []float64{1000})
	require.NoError(t, err)
	require.Len(t, dist.Bands, 2)
	assert.Equal(t, 1, dist.Bands[1].Total)

	_, err = svc.PriceDistribution(ctx, []float64{1000, 200})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
