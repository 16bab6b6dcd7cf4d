package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/config"
	"proteia_back_end/internal/database"
)

// Stores : catalogue et utilisateurs sur le backend choisi par CATALOG_DRIVER
type Stores struct {
	Catalog catalog.ReadWriter
	Users   auth.Store
}

// OpenStores suppose ConnectDatabases déjà appelé. Crée le schéma et les rôles.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	var stores Stores

	if cfg.CatalogDriver == "scylla" {
		catalogSession, err := database.Scylla.CatalogSession()
		if err != nil {
			return nil, err
		}
		usersSession, err := database.Scylla.UsersSession()
		if err != nil {
			return nil, err
		}

		catalogStore := catalog.NewScyllaStore(catalogSession)
		if err := catalogStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		usersStore := auth.NewScyllaStore(usersSession)
		if err := usersStore.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		stores.Catalog, stores.Users = catalogStore, usersStore
	} else {
		if database.SQL == nil {
			return nil, fmt.Errorf("base SQL non initialisée")
		}
		catalogStore := catalog.NewGormStore(database.SQL)
		if err := catalogStore.Migrate(); err != nil {
			return nil, fmt.Errorf("migration catalogue: %w", err)
		}
		usersStore := auth.NewGormStore(database.SQL)
		if err := usersStore.Migrate(); err != nil {
			return nil, fmt.Errorf("migration utilisateurs: %w", err)
		}
		stores.Catalog, stores.Users = catalogStore, usersStore
	}

	if err := stores.Users.SeedRoles(ctx); err != nil {
		return nil, err
	}
	zap.L().Info("✅ Stores prêts", zap.String("driver", cfg.CatalogDriver))
	return &stores, nil
}
