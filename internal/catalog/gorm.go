package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

// GormStore : catalogue relationnel (sqlite en local, postgres en prod)
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate crée les tables du catalogue
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.NutritionalInfo{},
		&models.ProductAnalysis{},
	)
}

func (s *GormStore) withJoins(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("NutritionalInfo").Preload("Analysis")
}

func (s *GormStore) ListProducts(ctx context.Context, filter Filter) ([]models.Product, error) {
	q := s.withJoins(ctx).Model(&models.Product{})

	if filter.Brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(filter.Brand))
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(product_name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(category) LIKE ? OR LOWER(COALESCE(search_term, '')) LIKE ?",
			like, like, like, like)
	}
	if filter.MinSimilarity != nil {
		sub := s.db.Model(&models.ProductAnalysis{}).Select("product_id").Where("similarity_score >= ?", *filter.MinSimilarity)
		q = q.Where("id IN (?)", sub)
	}

	var products []models.Product
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	return products, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.withJoins(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("produit %d introuvable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %d: %w", id, err)
	}
	return &p, nil
}

func (s *GormStore) GetProductByASIN(ctx context.Context, asin string) (*models.Product, error) {
	var p models.Product
	err := s.withJoins(ctx).Where("UPPER(asin) = ?", strings.ToUpper(asin)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("produit %s introuvable", asin)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", asin, err)
	}
	return &p, nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	return cats, nil
}

func (s *GormStore) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.WithContext(ctx).Order("id").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("lecture marques: %w", err)
	}
	return brands, nil
}

// SaveProduct fait un upsert par ASIN ; les sous-fiches sont remplacées
func (s *GormStore) SaveProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		err := tx.Select("id", "created_at").Where("UPPER(asin) = ?", strings.ToUpper(p.ASIN)).First(&existing).Error
		switch {
		case err == nil:
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return fmt.Errorf("sauvegarde produit %s: %w", p.ASIN, err)
		}
		if err := deleteSubRecords(tx, p.ID); err != nil {
			return err
		}
		if p.NutritionalInfo != nil {
			p.NutritionalInfo.ID = 0
			p.NutritionalInfo.ProductID = p.ID
			if err := tx.Create(p.NutritionalInfo).Error; err != nil {
				return fmt.Errorf("sauvegarde nutrition %s: %w", p.ASIN, err)
			}
		}
		if p.Analysis != nil {
			p.Analysis.ID = 0
			p.Analysis.ProductID = p.ID
			if err := tx.Create(p.Analysis).Error; err != nil {
				return fmt.Errorf("sauvegarde analyse %s: %w", p.ASIN, err)
			}
		}
		return nil
	})
}

// DeleteProduct supprime en cascade dans une transaction
func (s *GormStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSubRecords(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return fmt.Errorf("suppression produit %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("produit %d introuvable", id)
		}
		return nil
	})
}

func deleteSubRecords(tx *gorm.DB, productID int64) error {
	if err := tx.Where("product_id = ?", productID).Delete(&models.NutritionalInfo{}).Error; err != nil {
		return fmt.Errorf("suppression nutrition %d: %w", productID, err)
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductAnalysis{}).Error; err != nil {
		return fmt.Errorf("suppression analyse %d: %w", productID, err)
	}
	return nil
}

func (s *GormStore) SaveCategory(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return apperr.Validation("nom de catégorie obligatoire")
	}
	if c.ParentID != nil {
		cats, err := s.ListCategories(ctx)
		if err != nil {
			return err
		}
		if c.ID != 0 {
			next := make([]models.Category, 0, len(cats))
			for _, existing := range cats {
				if existing.ID != c.ID {
					next = append(next, existing)
				}
			}
			if _, err := NewCategoryTree(append(next, *c)); err != nil {
				return err
			}
		} else if !containsCategory(cats, *c.ParentID) {
			return apperr.Validation("catégorie parente %d introuvable", *c.ParentID)
		}
	}

	if err := s.db.WithContext(ctx).Omit("Parent").Save(c).Error; err != nil {
		return fmt.Errorf("sauvegarde catégorie %s: %w", c.Name, err)
	}
	return nil
}

// DeleteCategory : restrict si des sous-catégories existent
func (s *GormStore) DeleteCategory(ctx context.Context, id int64) error {
	var children int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return fmt.Errorf("lecture sous-catégories %d: %w", id, err)
	}
	if children > 0 {
		return apperr.Validation("catégorie %d possède des sous-catégories", id)
	}

	res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("suppression catégorie %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("catégorie %d introuvable", id)
	}
	return nil
}

func (s *GormStore) SaveBrand(ctx context.Context, b *models.Brand) error {
	if b.Name == "" {
		return apperr.Validation("nom de marque obligatoire")
	}
	if b.ID == 0 {
		var existing models.Brand
		err := s.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(b.Name)).First(&existing).Error
		if err == nil {
			b.ID = existing.ID
			b.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("sauvegarde marque %s: %w", b.Name, err)
	}
	return nil
}

func containsCategory(cats []models.Category, id int64) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}
