package models

// Unspecified regroupe les produits sans marque ou sans catégorie
const Unspecified = "unspecified"

type MarketOverview struct {
	TotalProducts int             `json:"totalProducts"`
	AveragePrice  *float64        `json:"averagePrice"`
	AverageRating *float64        `json:"averageRating"`
	TotalRevenue  float64         `json:"totalRevenue"`
	CategoryStats []CategoryStats `json:"categoryStats"`
	BrandStats    []BrandStats    `json:"brandStats"`
}

type CategoryStats struct {
	Name         string   `json:"name"`
	ProductCount int      `json:"productCount"`
	AveragePrice *float64 `json:"averagePrice"`
	TotalRevenue float64  `json:"totalRevenue"`
}

type BrandStats struct {
	Name           string   `json:"name"`
	ProductCount   int      `json:"productCount"`
	AveragePrice   *float64 `json:"averagePrice"`
	AverageRating  *float64 `json:"averageRating"`
	TotalRevenue   float64  `json:"totalRevenue"`
	AverageProtein *float64 `json:"averageProtein"`
}

type ProductComparison struct {
	Proteo50           ProductSummary   `json:"proteo50"`
	SimilarProducts    []ProductSummary `json:"similarProducts"`
	CompetitorProducts []ProductSummary `json:"competitorProducts"`
}

type ProspectRanking struct {
	TopProspects        []Prospect          `json:"topProspects"`
	MarketOpportunities []MarketOpportunity `json:"marketOpportunities"`
}

type Prospect struct {
	ID                int64    `json:"id"`
	ProductName       string   `json:"productName"`
	Brand             string   `json:"brand"`
	Price             float64  `json:"price"`
	SimilarityScore   *float64 `json:"similarityScore"`
	Protein           *float64 `json:"protein"`
	IntendedSegment   *string  `json:"intendedSegment"`
	ProspectScore     float64  `json:"prospectScore"`
	OpportunityReason string   `json:"opportunityReason"`
}

type MarketOpportunity struct {
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	PotentialRevenue  float64  `json:"potentialRevenue"`
	ProductCount      int      `json:"productCount"`
	AveragePrice      *float64 `json:"averagePrice"`
	RevenuePerProduct float64  `json:"revenuePerProduct"`
	OpportunityIndex  *float64 `json:"opportunityIndex"`
}

type PriceDistribution struct {
	Bands      []PriceBandCount `json:"bands"`
	Categories []string         `json:"categories"`
}

type PriceBandCount struct {
	Label      string         `json:"range"`
	Min        float64        `json:"min"`
	Max        *float64       `json:"max"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

type BrandRevenue struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"displayName"`
	TotalRevenue  float64  `json:"size"`
	AverageRating *float64 `json:"rating"`
	AveragePrice  *float64 `json:"avgPrice"`
	TotalSales    int      `json:"totalSales"`
	ProductCount  int      `json:"count"`
}
