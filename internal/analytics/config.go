package analytics

import (
	"proteia_back_end/internal/apperr"
)

// ProspectWeights pondère les trois signaux du score prospect
type ProspectWeights struct {
	Similarity float64 `yaml:"similarity"`
	Protein    float64 `yaml:"protein"`
	Price      float64 `yaml:"price"`
}

// Config regroupe les seuils du dashboard. Surchargeable par fichier YAML (ANALYTICS_CONFIG).
type Config struct {
	ReferenceASIN string `yaml:"reference_asin"`

	// Bande "similaires" : score >= SimilarThreshold
	SimilarThreshold float64 `yaml:"similar_threshold"`
	SimilarTopN      int     `yaml:"similar_top_n"`
	// Bande "concurrents" : même catégorie, score dans [CompetitorThreshold, SimilarThreshold)
	CompetitorThreshold float64 `yaml:"competitor_threshold"`
	CompetitorTopN      int     `yaml:"competitor_top_n"`

	// Valeurs par défaut de /products/similar
	SearchSimilarThreshold float64 `yaml:"search_similar_threshold"`
	SearchSimilarTopN      int     `yaml:"search_similar_top_n"`

	OverviewBrandLimit int `yaml:"overview_brand_limit"`

	ProspectMinSimilarity float64         `yaml:"prospect_min_similarity"`
	ProspectTopN          int             `yaml:"prospect_top_n"`
	ProspectWeights       ProspectWeights `yaml:"prospect_weights"`

	OpportunityIndexThreshold float64 `yaml:"opportunity_index_threshold"`
	OpportunityTopN           int     `yaml:"opportunity_top_n"`

	BrandRevenueTopK  int       `yaml:"brand_revenue_top_k"`
	DisplayNameBudget int       `yaml:"display_name_budget"`
	PriceBounds       []float64 `yaml:"price_bounds"`
}

func DefaultConfig() Config {
	return Config{
		ReferenceASIN:          "PROTEO50-REF",
		SimilarThreshold:       0.6,
		SimilarTopN:            10,
		CompetitorThreshold:    0,
		CompetitorTopN:         15,
		SearchSimilarThreshold: 0.5,
		SearchSimilarTopN:      20,
		OverviewBrandLimit:     10,
		ProspectMinSimilarity:  0.4,
		ProspectTopN:           20,
		ProspectWeights: ProspectWeights{
			Similarity: 0.6,
			Protein:    0.25,
			Price:      0.15,
		},
		OpportunityIndexThreshold: 1.0,
		OpportunityTopN:           5,
		BrandRevenueTopK:          12,
		DisplayNameBudget:         15,
		PriceBounds:               []float64{500, 1000, 1500, 2000},
	}
}

// Validate refuse une configuration incohérente avant le démarrage du serveur
func (c Config) Validate() error {
	if c.ReferenceASIN == "" {
		return apperr.Validation("reference_asin obligatoire")
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"similar_threshold", c.SimilarThreshold},
		{"competitor_threshold", c.CompetitorThreshold},
		{"search_similar_threshold", c.SearchSimilarThreshold},
		{"prospect_min_similarity", c.ProspectMinSimilarity},
	}
	for _, t := range thresholds {
		if !inUnitRange(t.value) {
			return apperr.Validation("%s doit être dans [0,1], reçu %v", t.name, t.value)
		}
	}
	if c.CompetitorThreshold > c.SimilarThreshold {
		return apperr.Validation("competitor_threshold (%v) supérieur à similar_threshold (%v)", c.CompetitorThreshold, c.SimilarThreshold)
	}

	limits := []struct {
		name  string
		value int
	}{
		{"similar_top_n", c.SimilarTopN},
		{"competitor_top_n", c.CompetitorTopN},
		{"search_similar_top_n", c.SearchSimilarTopN},
		{"overview_brand_limit", c.OverviewBrandLimit},
		{"prospect_top_n", c.ProspectTopN},
		{"opportunity_top_n", c.OpportunityTopN},
		{"brand_revenue_top_k", c.BrandRevenueTopK},
	}
	for _, l := range limits {
		if l.value < 0 {
			return apperr.Validation("%s ne peut pas être négatif", l.name)
		}
	}

	w := c.ProspectWeights
	if !(w.Similarity >= 0 && w.Protein >= 0 && w.Price >= 0) {
		return apperr.Validation("les poids prospect doivent être positifs")
	}
	if !(w.Similarity+w.Protein+w.Price > 0) {
		return apperr.Validation("la somme des poids prospect doit être positive")
	}
	if !(c.OpportunityIndexThreshold >= 0) {
		return apperr.Validation("opportunity_index_threshold ne peut pas être négatif")
	}
	if c.DisplayNameBudget <= 0 {
		return apperr.Validation("display_name_budget doit être positif")
	}
	if _, err := BandsFromBounds(c.PriceBounds); err != nil {
		return err
	}
	return nil
}
