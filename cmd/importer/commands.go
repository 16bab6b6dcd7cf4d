package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/cache"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/database"
	"proteia_back_end/internal/models"
	"proteia_back_end/internal/services"
	"proteia_back_end/internal/utils"
)

var (
	importFile   string
	importNoIdx  bool
	userEmail    string
	userName     string
	userPassword string
	userRole     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Importe un fichier CSV dans le catalogue",
	RunE:  runImport,
}

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Crée tables / keyspaces et rôles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// le travail est fait par PersistentPreRunE
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Schéma prêt (%s)\n", env.cfg.CatalogDriver)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Réindexe tout le catalogue dans Elasticsearch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		search := services.NewSearch(database.Elastic, env.cfg.Elastic.Index, env.stores.Catalog)
		n, err := search.IndexAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🔎 %d produits indexés\n", n)
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Crée un utilisateur avec un rôle (Admin, Analyst, Viewer)",
	RunE:  runCreateUser,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "chemin du CSV")
	importCmd.Flags().BoolVar(&importNoIdx, "no-index", false, "ne pas indexer dans Elasticsearch")
	_ = importCmd.MarkFlagRequired("file")

	createUserCmd.Flags().StringVar(&userEmail, "email", "", "email")
	createUserCmd.Flags().StringVar(&userName, "name", "", "nom affiché")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "mot de passe")
	createUserCmd.Flags().StringVar(&userRole, "role", models.RoleViewer, "rôle")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runImport(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	importer := &catalog.Importer{Store: env.stores.Catalog}

	search := services.NewSearch(database.Elastic, env.cfg.Elastic.Index, env.stores.Catalog)
	if search.Enabled() && !importNoIdx {
		importer.OnSaved = func(ctx context.Context, p *models.Product) {
			if err := search.IndexProduct(ctx, p); err != nil {
				zap.L().Warn("⚠️ Indexation impossible", zap.String("asin", p.ASIN), zap.Error(err))
			}
		}
	}

	res, err := importer.Import(ctx, f)
	if err != nil {
		return err
	}

	// Les vues en cache sont périmées après un import
	if n, err := cache.New(database.Redis).InvalidateDashboard(ctx); err != nil {
		zap.L().Warn("⚠️ Invalidation du cache impossible", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("🧹 Vues dashboard invalidées", zap.Int("keys", n))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ %d produits importés, %d lignes ignorées\n", res.Imported, res.Skipped)
	fmt.Fprintf(out, "   %d marques, %d catégories créées\n", res.Brands, res.Categories)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "   ⚠️ %s\n", e)
	}
	return nil
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	if _, ok := auth.DefaultRoles[userRole]; !ok {
		return fmt.Errorf("rôle inconnu: %s", userRole)
	}
	if err := utils.CheckPasswordStrength(userPassword); err != nil {
		return err
	}
	hash, err := utils.HashPassword(userPassword)
	if err != nil {
		return err
	}
	if userName == "" {
		userName = userEmail
	}

	user := &models.User{Name: userName, Email: userEmail, PasswordHash: hash}
	if err := env.stores.Users.CreateUser(cmd.Context(), user, userRole); err != nil {
		return errors.Join(errors.New("création utilisateur impossible"), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "👤 Utilisateur %d créé (%s, %s)\n", user.ID, user.Email, userRole)
	return nil
}
