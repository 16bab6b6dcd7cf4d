package models

import (
	"time"
)

// Product est une fiche du marché analysé (import CSV), avec ses sous-fiches 1:1
type Product struct {
	ID          int64    `json:"id" gorm:"primaryKey"`
	ASIN        string   `json:"asin" gorm:"column:asin;size:20;uniqueIndex;not null"`
	ProductName string   `json:"productName" gorm:"size:500;not null"`
	Brand       string   `json:"brand" gorm:"size:100;index"`
	Category    string   `json:"category" gorm:"size:100;index"`
	Price       float64  `json:"price" gorm:"not null"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"reviewCount"`
	EstSales    *int     `json:"estSales"`
	EstRevenue  *float64 `json:"estRevenue"`

	// Métriques marché (toutes optionnelles)
	AvgPricePerMonth  *float64   `json:"avgPricePerMonth,omitempty"`
	NetMargin         *float64   `json:"netMargin,omitempty"`
	LQS               *int       `json:"lqs,omitempty" gorm:"column:lqs"`
	MinPrice          *float64   `json:"minPrice,omitempty"`
	Net               *float64   `json:"net,omitempty"`
	FBAFees           *float64   `json:"fbaFees,omitempty" gorm:"column:fba_fees"`
	ScoreForPL        *int       `json:"scoreForPl,omitempty" gorm:"column:score_for_pl"`
	ScoreForReselling *int       `json:"scoreForReselling,omitempty"`
	NumSellers        *int       `json:"numSellers,omitempty"`
	Rank              *int       `json:"rank,omitempty"`
	AvgBSRPerMonth    *int       `json:"avgBsrPerMonth,omitempty" gorm:"column:avg_bsr_per_month"`
	Inventory         *int       `json:"inventory,omitempty"`
	PageSalesShare    *float64   `json:"pageSalesShare,omitempty"`
	PageRevShare      *float64   `json:"pageRevShare,omitempty"`
	RevPerReview      *float64   `json:"revPerReview,omitempty"`
	ProfitPotential   *float64   `json:"profitPotential,omitempty"`
	Weight            *float64   `json:"weight,omitempty"`
	SellerType        *string    `json:"sellerType,omitempty" gorm:"size:50"`
	Variants          *int       `json:"variants,omitempty"`
	URL               *string    `json:"url,omitempty" gorm:"column:url;size:1000"`
	SearchCount       *int       `json:"searchCount,omitempty"`
	SearchTerm        *string    `json:"searchTerm,omitempty" gorm:"size:200"`
	HasAPlus          bool       `json:"hasAPlus" gorm:"column:has_a_plus"`
	AvailableFrom     *time.Time `json:"availableFrom,omitempty"`
	BestSellerIn      *string    `json:"bestSellerIn,omitempty" gorm:"size:200"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Chargées explicitement par le store, jamais en lazy-loading
	NutritionalInfo *NutritionalInfo `json:"nutritionalInfo" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Analysis        *ProductAnalysis `json:"productAnalysis" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// NutritionalInfo : valeurs pour 100g
type NutritionalInfo struct {
	ID            int64    `json:"-" gorm:"primaryKey"`
	ProductID     int64    `json:"-" gorm:"uniqueIndex;not null"`
	Energy        *float64 `json:"energy"` // kcal
	Protein       *float64 `json:"protein"`
	TotalFat      *float64 `json:"totalFat"`
	SaturatedFat  *float64 `json:"saturatedFat,omitempty"`
	TransFat      *float64 `json:"transFat,omitempty"` // mg
	Carbohydrates *float64 `json:"carbohydrates"`
	Sugars        *float64 `json:"sugars,omitempty"`
	AddedSugars   *float64 `json:"addedSugars,omitempty"`
	DietaryFiber  *float64 `json:"dietaryFiber"`

	// Minéraux (mg)
	Sodium       *float64 `json:"sodium"`
	Potassium    *float64 `json:"potassium,omitempty"`
	Calcium      *float64 `json:"calcium,omitempty"`
	Iron         *float64 `json:"iron,omitempty"`
	Phosphorus   *float64 `json:"phosphorus,omitempty"`
	Polyalcohols *float64 `json:"polyalcohols,omitempty"`

	CreatedAt time.Time `json:"-"`
}

func (NutritionalInfo) TableName() string {
	return "nutritional_info"
}

// ProductAnalysis : attributs marketing + similarité avec le produit de référence
type ProductAnalysis struct {
	ID                  int64    `json:"-" gorm:"primaryKey"`
	ProductID           int64    `json:"-" gorm:"uniqueIndex;not null"`
	ValueProposition    *string  `json:"valueProposition"`
	Ingredients         *string  `json:"ingredients,omitempty"`
	KeyLabels           *string  `json:"keyLabels"`
	PrimaryColors       *string  `json:"primaryColors,omitempty"`
	SecondaryColors     *string  `json:"secondaryColors,omitempty"`
	IntendedSegment     *string  `json:"intendedSegment"`
	AdditionalNotes     *string  `json:"additionalNotes,omitempty"`
	SimilarityScore     *float64 `json:"similarityScore"`
	CompetitivePosition *string  `json:"competitivePosition,omitempty"`
	Barriers            *string  `json:"barriers,omitempty"`
	Playbook            *string  `json:"playbook,omitempty"`

	CreatedAt time.Time `json:"-"`
}

func (ProductAnalysis) TableName() string {
	return "product_analysis"
}

// SimilarityScore retourne le score de similarité ou nil si aucune analyse
func (p *Product) SimilarityScore() *float64 {
	if p.Analysis == nil {
		return nil
	}
	return p.Analysis.SimilarityScore
}

// Protein retourne la teneur en protéines ou nil
func (p *Product) Protein() *float64 {
	if p.NutritionalInfo == nil {
		return nil
	}
	return p.NutritionalInfo.Protein
}

// Summary projette un produit vers sa vue résumée
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		ASIN:            p.ASIN,
		ProductName:     p.ProductName,
		Brand:           p.Brand,
		Category:        p.Category,
		Price:           p.Price,
		Rating:          p.Rating,
		EstRevenue:      p.EstRevenue,
		SimilarityScore: p.SimilarityScore(),
	}
}

// ProductSummary est la vue allégée utilisée par les listes et le dashboard
type ProductSummary struct {
	ID              int64    `json:"id"`
	ASIN            string   `json:"asin"`
	ProductName     string   `json:"productName"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category"`
	Price           float64  `json:"price"`
	Rating          *float64 `json:"rating"`
	EstRevenue      *float64 `json:"estRevenue"`
	SimilarityScore *float64 `json:"similarityScore"`
}
