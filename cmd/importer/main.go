package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proteia_back_end/internal/app"
	"proteia_back_end/internal/config"
	"proteia_back_end/internal/database"
	"proteia_back_end/internal/logger"
)

var verbose bool

// env partagé par les sous-commandes, initialisé dans PersistentPreRunE
var env struct {
	cfg    *config.Config
	stores *app.Stores
}

var rootCmd = &cobra.Command{
	Use:   "proteia-importer",
	Short: "Outils d'administration du catalogue Proteia",
	Long: `Charge l'export CSV du marché, prépare les schémas et réindexe la recherche.

Sous-commandes :
  import       - Importe un fichier CSV dans le catalogue
  init-schema  - Crée tables / keyspaces et rôles
  index        - Réindexe tout le catalogue dans Elasticsearch
  create-user  - Crée un utilisateur avec un rôle`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.LoadDotEnv()
		if _, err := logger.Init(os.Getenv("APP_ENV"), verbose); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.ConnectDatabases(cfg); err != nil {
			return err
		}
		stores, err := app.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		env.cfg, env.stores = cfg, stores
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		database.Close()
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs de debug")
	rootCmd.AddCommand(importCmd, initSchemaCmd, indexCmd, createUserCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
