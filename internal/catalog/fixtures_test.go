package catalog

import "proteia_back_end/internal/models"

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func product(asin, name, brand, category string, price float64, score float64) models.Product {
	return models.Product{
		ASIN:        asin,
		ProductName: name,
		Brand:       brand,
		Category:    category,
		Price:       price,
		Rating:      f64(4.2),
		EstRevenue:  f64(price * 10),
		NutritionalInfo: &models.NutritionalInfo{
			Protein: f64(20),
		},
		Analysis: &models.ProductAnalysis{
			SimilarityScore: f64(score),
		},
	}
}

func sampleProducts() []models.Product {
	return []models.Product{
		product("B001", "Whey Vanilla", "Proteo", "Whey", 900, 0.9),
		product("B002", "Whey Chocolate", "MuscleCo", "Whey", 1200, 0.7),
		product("B003", "Vegan Pea", "GreenFit", "Vegan", 1500, 0.3),
	}
}
