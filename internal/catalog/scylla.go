package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/database/sequence"
	"proteia_back_end/internal/models"
)

// ScyllaSchema : tables du keyspace catalogue
var ScyllaSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id bigint PRIMARY KEY, asin text, product_name text, brand text, category text,
		price double, rating double, review_count int, est_sales int, est_revenue double,
		avg_price_per_month double, net_margin double, lqs int, min_price double, net double, fba_fees double,
		score_for_pl int, score_for_reselling int, num_sellers int, rank int, avg_bsr_per_month int, inventory int,
		page_sales_share double, page_rev_share double, rev_per_review double, profit_potential double, weight double,
		seller_type text, variants int, url text, search_count int, search_term text, has_a_plus boolean,
		available_from timestamp, best_seller_in text, created_at timestamp, updated_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS products_by_asin (asin text PRIMARY KEY, product_id bigint)`,
	`CREATE TABLE IF NOT EXISTS nutritional_info (
		product_id bigint PRIMARY KEY, energy double, protein double, total_fat double, saturated_fat double,
		trans_fat double, carbohydrates double, sugars double, added_sugars double, dietary_fiber double,
		sodium double, potassium double, calcium double, iron double, phosphorus double, polyalcohols double,
		created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS product_analysis (
		product_id bigint PRIMARY KEY, value_proposition text, ingredients text, key_labels text,
		primary_colors text, secondary_colors text, intended_segment text, additional_notes text,
		similarity_score double, competitive_position text, barriers text, playbook text, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS categories (category_id bigint PRIMARY KEY, name text, description text, parent_id bigint, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS brands (brand_id bigint PRIMARY KEY, name text, description text, market_share double, country text, website text, created_at timestamp)`,
	sequence.Schema,
}

// ScyllaStore : catalogue sur ScyllaDB, les jointures sont faites en mémoire
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

// EnsureSchema crée les tables manquantes
func (s *ScyllaStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ScyllaSchema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("création schéma: %w", err)
		}
	}
	return nil
}

func productColumns(p *models.Product) ([]string, []interface{}) {
	return []string{
			"product_id", "asin", "product_name", "brand", "category",
			"price", "rating", "review_count", "est_sales", "est_revenue",
			"avg_price_per_month", "net_margin", "lqs", "min_price", "net", "fba_fees",
			"score_for_pl", "score_for_reselling", "num_sellers", "rank", "avg_bsr_per_month", "inventory",
			"page_sales_share", "page_rev_share", "rev_per_review", "profit_potential", "weight",
			"seller_type", "variants", "url", "search_count", "search_term", "has_a_plus",
			"available_from", "best_seller_in", "created_at", "updated_at",
		}, []interface{}{
			&p.ID, &p.ASIN, &p.ProductName, &p.Brand, &p.Category,
			&p.Price, &p.Rating, &p.ReviewCount, &p.EstSales, &p.EstRevenue,
			&p.AvgPricePerMonth, &p.NetMargin, &p.LQS, &p.MinPrice, &p.Net, &p.FBAFees,
			&p.ScoreForPL, &p.ScoreForReselling, &p.NumSellers, &p.Rank, &p.AvgBSRPerMonth, &p.Inventory,
			&p.PageSalesShare, &p.PageRevShare, &p.RevPerReview, &p.ProfitPotential, &p.Weight,
			&p.SellerType, &p.Variants, &p.URL, &p.SearchCount, &p.SearchTerm, &p.HasAPlus,
			&p.AvailableFrom, &p.BestSellerIn, &p.CreatedAt, &p.UpdatedAt,
		}
}

func nutritionColumns(n *models.NutritionalInfo) ([]string, []interface{}) {
	return []string{
			"product_id", "energy", "protein", "total_fat", "saturated_fat", "trans_fat",
			"carbohydrates", "sugars", "added_sugars", "dietary_fiber", "sodium", "potassium",
			"calcium", "iron", "phosphorus", "polyalcohols", "created_at",
		}, []interface{}{
			&n.ProductID, &n.Energy, &n.Protein, &n.TotalFat, &n.SaturatedFat, &n.TransFat,
			&n.Carbohydrates, &n.Sugars, &n.AddedSugars, &n.DietaryFiber, &n.Sodium, &n.Potassium,
			&n.Calcium, &n.Iron, &n.Phosphorus, &n.Polyalcohols, &n.CreatedAt,
		}
}

func analysisColumns(a *models.ProductAnalysis) ([]string, []interface{}) {
	return []string{
			"product_id", "value_proposition", "ingredients", "key_labels", "primary_colors",
			"secondary_colors", "intended_segment", "additional_notes", "similarity_score",
			"competitive_position", "barriers", "playbook", "created_at",
		}, []interface{}{
			&a.ProductID, &a.ValueProposition, &a.Ingredients, &a.KeyLabels, &a.PrimaryColors,
			&a.SecondaryColors, &a.IntendedSegment, &a.AdditionalNotes, &a.SimilarityScore,
			&a.CompetitivePosition, &a.Barriers, &a.Playbook, &a.CreatedAt,
		}
}

func selectStmt(table string, cols []string, where string) string {
	stmt := "SELECT " + strings.Join(cols, ", ") + " FROM " + table
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt
}

func insertStmt(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
}

func (s *ScyllaStore) ListProducts(ctx context.Context, filter Filter) ([]models.Product, error) {
	nutrition := make(map[int64]*models.NutritionalInfo)
	{
		var n models.NutritionalInfo
		cols, dest := nutritionColumns(&n)
		iter := s.session.Query(selectStmt("nutritional_info", cols, "")).WithContext(ctx).Iter()
		for iter.Scan(dest...) {
			row := n
			nutrition[row.ProductID] = &row
			n = models.NutritionalInfo{}
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("lecture nutrition: %w", err)
		}
	}

	analyses := make(map[int64]*models.ProductAnalysis)
	{
		var a models.ProductAnalysis
		cols, dest := analysisColumns(&a)
		iter := s.session.Query(selectStmt("product_analysis", cols, "")).WithContext(ctx).Iter()
		for iter.Scan(dest...) {
			row := a
			analyses[row.ProductID] = &row
			a = models.ProductAnalysis{}
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("lecture analyses: %w", err)
		}
	}

	var products []models.Product
	var p models.Product
	cols, dest := productColumns(&p)
	iter := s.session.Query(selectStmt("products", cols, "")).WithContext(ctx).Iter()
	for iter.Scan(dest...) {
		p.NutritionalInfo = nutrition[p.ID]
		p.Analysis = analyses[p.ID]
		if filter.Match(&p) {
			products = append(products, p)
		}
		p = models.Product{} // Reset pour la prochaine itération
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *ScyllaStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	cols, dest := productColumns(&p)
	err := s.session.Query(selectStmt("products", cols, "product_id = ?"), id).WithContext(ctx).Scan(dest...)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, apperr.NotFound("produit %d introuvable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %d: %w", id, err)
	}

	var n models.NutritionalInfo
	ncols, ndest := nutritionColumns(&n)
	switch err := s.session.Query(selectStmt("nutritional_info", ncols, "product_id = ?"), id).WithContext(ctx).Scan(ndest...); {
	case err == nil:
		p.NutritionalInfo = &n
	case !errors.Is(err, gocql.ErrNotFound):
		return nil, fmt.Errorf("lecture nutrition %d: %w", id, err)
	}

	var a models.ProductAnalysis
	acols, adest := analysisColumns(&a)
	switch err := s.session.Query(selectStmt("product_analysis", acols, "product_id = ?"), id).WithContext(ctx).Scan(adest...); {
	case err == nil:
		p.Analysis = &a
	case !errors.Is(err, gocql.ErrNotFound):
		return nil, fmt.Errorf("lecture analyse %d: %w", id, err)
	}

	return &p, nil
}

func (s *ScyllaStore) GetProductByASIN(ctx context.Context, asin string) (*models.Product, error) {
	id, err := s.lookupASIN(ctx, asin)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, apperr.NotFound("produit %s introuvable", asin)
	}
	return s.GetProduct(ctx, id)
}

func (s *ScyllaStore) lookupASIN(ctx context.Context, asin string) (int64, error) {
	var id int64
	err := s.session.Query(`SELECT product_id FROM products_by_asin WHERE asin = ?`, strings.ToUpper(asin)).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lecture index asin %s: %w", asin, err)
	}
	return id, nil
}

func (s *ScyllaStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.session.Query(`SELECT category_id, name, description, parent_id, created_at FROM categories`).WithContext(ctx).Iter()

	var cats []models.Category
	var c models.Category
	for iter.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.CreatedAt) {
		cats = append(cats, c)
		c = models.Category{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats, nil
}

func (s *ScyllaStore) ListBrands(ctx context.Context) ([]models.Brand, error) {
	iter := s.session.Query(`SELECT brand_id, name, description, market_share, country, website, created_at FROM brands`).WithContext(ctx).Iter()

	var brands []models.Brand
	var b models.Brand
	for iter.Scan(&b.ID, &b.Name, &b.Description, &b.MarketShare, &b.Country, &b.Website, &b.CreatedAt) {
		brands = append(brands, b)
		b = models.Brand{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture marques: %w", err)
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].ID < brands[j].ID })
	return brands, nil
}

func (s *ScyllaStore) nextID(ctx context.Context, name string) (int64, error) {
	return sequence.Next(ctx, s.session, name)
}

func (s *ScyllaStore) SaveProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	existing, err := s.lookupASIN(ctx, p.ASIN)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing != 0 {
		if current, err := s.GetProduct(ctx, existing); err == nil {
			p.CreatedAt = current.CreatedAt
		}
		p.ID = existing
	} else if p.ID == 0 {
		if p.ID, err = s.nextID(ctx, "products"); err != nil {
			return err
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	cols, values := productColumns(p)
	if err := s.session.Query(insertStmt("products", cols), values...).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("sauvegarde produit %s: %w", p.ASIN, err)
	}
	if err := s.session.Query(`INSERT INTO products_by_asin (asin, product_id) VALUES (?, ?)`,
		strings.ToUpper(p.ASIN), p.ID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("indexation asin %s: %w", p.ASIN, err)
	}

	if err := s.deleteSubRecords(ctx, p.ID); err != nil {
		return err
	}
	if p.NutritionalInfo != nil {
		p.NutritionalInfo.ProductID = p.ID
		if p.NutritionalInfo.CreatedAt.IsZero() {
			p.NutritionalInfo.CreatedAt = now
		}
		cols, values := nutritionColumns(p.NutritionalInfo)
		if err := s.session.Query(insertStmt("nutritional_info", cols), values...).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("sauvegarde nutrition %s: %w", p.ASIN, err)
		}
	}
	if p.Analysis != nil {
		p.Analysis.ProductID = p.ID
		if p.Analysis.CreatedAt.IsZero() {
			p.Analysis.CreatedAt = now
		}
		cols, values := analysisColumns(p.Analysis)
		if err := s.session.Query(insertStmt("product_analysis", cols), values...).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("sauvegarde analyse %s: %w", p.ASIN, err)
		}
	}
	return nil
}

func (s *ScyllaStore) deleteSubRecords(ctx context.Context, id int64) error {
	if err := s.session.Query(`DELETE FROM nutritional_info WHERE product_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression nutrition %d: %w", id, err)
	}
	if err := s.session.Query(`DELETE FROM product_analysis WHERE product_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression analyse %d: %w", id, err)
	}
	return nil
}

// DeleteProduct : pas de FK sur Scylla, la cascade est faite à la main
func (s *ScyllaStore) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.deleteSubRecords(ctx, id); err != nil {
		return err
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM products WHERE product_id = ?`, id)
	batch.Query(`DELETE FROM products_by_asin WHERE asin = ?`, strings.ToUpper(p.ASIN))
	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("suppression produit %d: %w", id, err)
	}
	return nil
}

func (s *ScyllaStore) SaveCategory(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return apperr.Validation("nom de catégorie obligatoire")
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	if c.ID == 0 {
		if c.ID, err = s.nextID(ctx, "categories"); err != nil {
			return err
		}
	}
	next := make([]models.Category, 0, len(cats)+1)
	for _, existing := range cats {
		if existing.ID != c.ID {
			next = append(next, existing)
		}
	}
	if _, err := NewCategoryTree(append(next, *c)); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	if err := s.session.Query(`INSERT INTO categories (category_id, name, description, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.ParentID, c.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("sauvegarde catégorie %s: %w", c.Name, err)
	}
	return nil
}

func (s *ScyllaStore) DeleteCategory(ctx context.Context, id int64) error {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	tree, err := NewCategoryTree(cats)
	if err != nil {
		return err
	}
	if !containsCategory(cats, id) {
		return apperr.NotFound("catégorie %d introuvable", id)
	}
	if tree.HasChildren(id) {
		return apperr.Validation("catégorie %d possède des sous-catégories", id)
	}
	if err := s.session.Query(`DELETE FROM categories WHERE category_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression catégorie %d: %w", id, err)
	}
	return nil
}

func (s *ScyllaStore) SaveBrand(ctx context.Context, b *models.Brand) error {
	if b.Name == "" {
		return apperr.Validation("nom de marque obligatoire")
	}
	if b.ID == 0 {
		brands, err := s.ListBrands(ctx)
		if err != nil {
			return err
		}
		for _, existing := range brands {
			if strings.EqualFold(existing.Name, b.Name) {
				b.ID = existing.ID
				b.CreatedAt = existing.CreatedAt
			}
		}
	}
	if b.ID == 0 {
		var err error
		if b.ID, err = s.nextID(ctx, "brands"); err != nil {
			return err
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	if err := s.session.Query(`INSERT INTO brands (brand_id, name, description, market_share, country, website, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.MarketShare, b.Country, b.Website, b.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("sauvegarde marque %s: %w", b.Name, err)
	}
	return nil
}
