package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proteia_back_end/internal/apperr"
)

func TestBrandRevenue(t *testing.T) {
	products := build(
		item{brand: "Optimum Nutrition Gold", revenue: f64(1000), rating: f64(4), price: 50, sales: intp(10)},
		item{brand: "Optimum Nutrition Gold", revenue: f64(500), rating: f64(5), price: 70, sales: intp(5)},
		item{brand: "Proteo", revenue: f64(1500), rating: nil, price: 30, sales: nil},
		item{brand: "Zeta", revenue: nil},
	)

	out := BrandRevenueOf(products, 15)
	require.Len(t, out, 3)

	// égalité de revenu : ordre alphabétique
	assert.Equal(t, "Optimum Nutrition Gold", out[0].Name)
	assert.Equal(t, "Optimum Nutriti...", out[0].DisplayName)
	assert.Equal(t, 1500.0, out[0].TotalRevenue)
	assert.Equal(t, 4.5, *out[0].AverageRating)
	assert.Equal(t, 60.0, *out[0].AveragePrice)
	assert.Equal(t, 15, out[0].TotalSales)
	assert.Equal(t, 2, out[0].ProductCount)

	assert.Equal(t, "Proteo", out[1].Name)
	assert.Equal(t, "Proteo", out[1].DisplayName)
	assert.Nil(t, out[1].AverageRating)

	assert.Equal(t, "Zeta", out[2].Name)
	assert.Zero(t, out[2].TotalRevenue)
}

func TestDisplayNameCountsRunes(t *testing.T) {
	assert.Equal(t, "Protéines végét...", DisplayName("Protéines végétales bio", 15))
	assert.Equal(t, "court", DisplayName("court", 15))
}

func TestServiceBrandRevenueTopK(t *testing.T) {
	var items []item
	for i := 0; i < 20; i++ {
		items = append(items, item{brand: string(rune('a' + i)), revenue: f64(float64(i))})
	}
	svc := newService(t, build(items...))
	ctx := context.Background()

	out, err := svc.BrandRevenue(ctx, 12)
	require.NoError(t, err)
	assert.Len(t, out, 12)
	assert.Equal(t, "t", out[0].Name)

	all, err := svc.BrandRevenue(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 20)

	_, err = svc.BrandRevenue(ctx, -1)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
