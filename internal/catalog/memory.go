package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

// MemoryStore garde le catalogue en mémoire (tests, seed de démo)
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[int64]models.Product
	byASIN     map[string]int64
	categories map[int64]models.Category
	brands     map[int64]models.Brand
	nextID     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[int64]models.Product),
		byASIN:     make(map[string]int64),
		categories: make(map[int64]models.Category),
		brands:     make(map[int64]models.Brand),
	}
}

// NewMemoryStoreWith charge une liste de produits, pratique pour les tests
func NewMemoryStoreWith(products ...models.Product) *MemoryStore {
	s := NewMemoryStore()
	for i := range products {
		p := products[i]
		_ = s.SaveProduct(context.Background(), &p)
	}
	return s
}

func (s *MemoryStore) ListProducts(_ context.Context, filter Filter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Match(&p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("produit %d introuvable", id)
	}
	clone := cloneProduct(p)
	return &clone, nil
}

func (s *MemoryStore) GetProductByASIN(_ context.Context, asin string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byASIN[strings.ToUpper(asin)]
	if !ok {
		return nil, apperr.NotFound("produit %s introuvable", asin)
	}
	clone := cloneProduct(s.products[id])
	return &clone, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListBrands(_ context.Context) ([]models.Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Brand, 0, len(s.brands))
	for _, b := range s.brands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveProduct insère ou remplace un produit, la clé métier est l'ASIN
func (s *MemoryStore) SaveProduct(_ context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(p.ASIN)
	now := time.Now().UTC()
	if existing, ok := s.byASIN[key]; ok {
		if p.ID != 0 && p.ID != existing {
			return apperr.Validation("ASIN %s déjà utilisé par le produit %d", p.ASIN, existing)
		}
		p.ID = existing
		p.CreatedAt = s.products[existing].CreatedAt
	} else {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		} else if _, taken := s.products[p.ID]; taken {
			// Changement d'ASIN sur un produit existant
			delete(s.byASIN, strings.ToUpper(s.products[p.ID].ASIN))
		}
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}
	p.UpdatedAt = now
	if p.NutritionalInfo != nil {
		p.NutritionalInfo.ProductID = p.ID
	}
	if p.Analysis != nil {
		p.Analysis.ProductID = p.ID
	}

	s.products[p.ID] = cloneProduct(*p)
	s.byASIN[key] = p.ID
	return nil
}

// DeleteProduct supprime le produit et ses sous-fiches
func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperr.NotFound("produit %d introuvable", id)
	}
	delete(s.byASIN, strings.ToUpper(p.ASIN))
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) SaveCategory(_ context.Context, c *models.Category) error {
	if c.Name == "" {
		return apperr.Validation("nom de catégorie obligatoire")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		for _, existing := range s.categories {
			if existing.ID > c.ID {
				c.ID = existing.ID
			}
		}
		c.ID++
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	next := make([]models.Category, 0, len(s.categories)+1)
	for id, existing := range s.categories {
		if id != c.ID {
			next = append(next, existing)
		}
	}
	next = append(next, *c)
	if _, err := NewCategoryTree(next); err != nil {
		return err
	}

	s.categories[c.ID] = *c
	return nil
}

// DeleteCategory refuse de supprimer une catégorie qui a des enfants
func (s *MemoryStore) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return apperr.NotFound("catégorie %d introuvable", id)
	}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return apperr.Validation("catégorie %d possède des sous-catégories", id)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) SaveBrand(_ context.Context, b *models.Brand) error {
	if b.Name == "" {
		return apperr.Validation("nom de marque obligatoire")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == 0 {
		for id, existing := range s.brands {
			if strings.EqualFold(existing.Name, b.Name) {
				b.ID = id
				break
			}
		}
	}
	if b.ID == 0 {
		b.ID = int64(len(s.brands)) + 1
		for _, taken := s.brands[b.ID]; taken; _, taken = s.brands[b.ID] {
			b.ID++
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.brands[b.ID] = *b
	return nil
}

func cloneProduct(p models.Product) models.Product {
	if p.NutritionalInfo != nil {
		n := *p.NutritionalInfo
		p.NutritionalInfo = &n
	}
	if p.Analysis != nil {
		a := *p.Analysis
		p.Analysis = &a
	}
	return p
}
