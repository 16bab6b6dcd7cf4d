package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proteia_back_end/internal/models"
)

func prospectFixture() []models.Product {
	return build(
		item{asin: "PROTEO50-REF", category: "Whey", score: f64(1), protein: f64(50), price: 800},
		item{category: "Whey", score: f64(0.9), protein: f64(30), price: 1000},
		item{category: "Vegan", score: f64(0.5), protein: f64(60), price: 500},
		item{category: "Whey", score: f64(0.9), protein: f64(30), price: 1000},
		item{category: "Whey", score: f64(0.3), protein: f64(90), price: 10},
		item{category: "Whey", protein: f64(90), price: 10},
		item{category: "Bars", score: f64(0.4), price: 100},
	)
}

func TestRankProspects(t *testing.T) {
	svc := newService(t, prospectFixture())

	ranking, err := svc.ProspectRanking(context.Background())
	require.NoError(t, err)

	prospects := ranking.TopProspects
	require.Len(t, prospects, 4)

	got := []int64{}
	for _, p := range prospects {
		got = append(got, p.ID)
	}
	// 2 et 4 sont à égalité : départage par id
	assert.Equal(t, []int64{2, 4, 3, 7}, got)

	assert.InDelta(t, 0.665, prospects[0].ProspectScore, 1e-9)
	assert.Equal(t, "high similarity", prospects[0].OpportunityReason)

	assert.InDelta(t, 0.625, prospects[2].ProspectScore, 1e-9)
	assert.Equal(t, "high similarity, high protein", prospects[2].OpportunityReason)

	assert.Equal(t, "high similarity, lower price", prospects[3].OpportunityReason)
	assert.Nil(t, prospects[3].Protein)
}

func TestRankProspectsTopN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProspectTopN = 2
	prospects := RankProspects(prospectFixture(), nil, cfg)
	require.Len(t, prospects, 2)
	// sans référence, Proteo50 redevient un candidat
	assert.Equal(t, int64(1), prospects[0].ID)
}

func TestOpportunityReason(t *testing.T) {
	tests := []struct {
		name    string
		factors []factor
		want    string
	}{
		{"dominant seul", []factor{{reasonSimilarity, 0.5}, {reasonProtein, 0.1}, {reasonPrice, 0.1}}, "high similarity"},
		{"prix dominant", []factor{{reasonSimilarity, 0.1}, {reasonProtein, 0}, {reasonPrice, 0.15}}, "lower price, high similarity"},
		{"aucun signal", []factor{{reasonSimilarity, 0}, {reasonProtein, 0}, {reasonPrice, 0}}, "low signal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opportunityReason(tt.factors))
		})
	}
}

func opportunityFixture() []models.Product {
	return build(
		item{asin: "PROTEO50-REF", category: "Whey", revenue: f64(10000)},
		item{category: "Whey", revenue: f64(100), price: 900},
		item{category: "Whey", revenue: f64(300), price: 1100},
		item{category: "Vegan", revenue: f64(500), price: 700},
		item{category: "Bars", revenue: f64(200), price: 300},
		item{category: "Bars", revenue: f64(200), price: 500},
		item{category: "Snacks", revenue: f64(100)},
	)
}

func TestMarketOpportunities(t *testing.T) {
	svc := newService(t, opportunityFixture())

	ranking, err := svc.ProspectRanking(context.Background())
	require.NoError(t, err)

	opps := ranking.MarketOpportunities
	require.Len(t, opps, 2)

	assert.Equal(t, "Vegan", opps[0].Category)
	require.NotNil(t, opps[0].OpportunityIndex)
	assert.Equal(t, 2.5, *opps[0].OpportunityIndex)
	assert.Equal(t, 500.0, opps[0].RevenuePerProduct)
	require.NotNil(t, opps[0].AveragePrice)
	assert.Equal(t, 700.0, *opps[0].AveragePrice)
	assert.Contains(t, opps[0].Description, "2.50x")

	assert.Equal(t, "Bars", opps[1].Category)
	assert.Equal(t, 1.0, *opps[1].OpportunityIndex)
	assert.Equal(t, 400.0, opps[1].PotentialRevenue)
	assert.Equal(t, 2, opps[1].ProductCount)
	require.NotNil(t, opps[1].AveragePrice)
	assert.Equal(t, 400.0, *opps[1].AveragePrice)
}

func TestMarketOpportunitiesThreshold(t *testing.T) {
	svc := newService(t, opportunityFixture(), func(c *Config) { c.OpportunityIndexThreshold = 2 })

	ranking, err := svc.ProspectRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, ranking.MarketOpportunities, 1)
	assert.Equal(t, "Vegan", ranking.MarketOpportunities[0].Category)
}

func TestMarketOpportunitiesWithoutBaseline(t *testing.T) {
	opps := MarketOpportunities(opportunityFixture(), nil, DefaultConfig())

	names := []string{}
	for _, o := range opps {
		names = append(names, o.Category)
		assert.Nil(t, o.OpportunityIndex)
	}
	assert.Equal(t, []string{"Whey", "Vegan", "Bars", "Snacks"}, names)
}
