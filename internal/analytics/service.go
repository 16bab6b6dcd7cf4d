package analytics

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

// Service calcule les vues du dashboard. Lecture seule, sans état partagé :
// chaque appel relit un instantané du catalogue.
type Service struct {
	store catalog.Store
	cfg   Config
}

func NewService(store catalog.Store, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{store: store, cfg: cfg}, nil
}

func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) snapshot(ctx context.Context, filter catalog.Filter) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, storeError(err, "lecture du catalogue impossible")
	}
	return products, nil
}

// ReferenceProduct retourne le produit de référence (Proteo50)
func (s *Service) ReferenceProduct(ctx context.Context) (*models.Product, error) {
	p, err := s.store.GetProductByASIN(ctx, s.cfg.ReferenceASIN)
	if err != nil {
		return nil, storeError(err, "lecture du produit de référence impossible")
	}
	return p, nil
}

// storeError garde les erreurs métier et masque le reste derrière Internal
func storeError(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	zap.L().Error("❌ "+msg, zap.Error(err))
	return apperr.Internal(err, "%s", msg)
}
