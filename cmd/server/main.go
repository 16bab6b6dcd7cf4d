package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/app"
	"proteia_back_end/internal/auth"
	"proteia_back_end/internal/cache"
	"proteia_back_end/internal/config"
	"proteia_back_end/internal/database"
	"proteia_back_end/internal/logger"
	"proteia_back_end/internal/middleware"
	"proteia_back_end/internal/routes"
	"proteia_back_end/internal/services"
)

func main() {
	dotenv := config.LoadDotEnv()

	log, err := logger.Init(os.Getenv("APP_ENV"), strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if !dotenv {
		log.Info("ℹ️ Pas de fichier .env, lecture de l'environnement seul")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Configuration invalide", zap.Error(err))
	}

	if err := database.ConnectDatabases(cfg); err != nil {
		log.Fatal("❌ Connexion aux bases impossible", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Initialisation des stores", zap.Error(err))
	}

	redis := cache.New(database.Redis)
	an, err := analytics.NewService(stores.Catalog, cfg.Analytics)
	if err != nil {
		log.Fatal("❌ Configuration analytique invalide", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(log), middleware.CORS(cfg.CORSOrigins))

	routes.RegisterRoutes(r, routes.Deps{
		Auth: auth.NewService(stores.Users, redis, auth.Options{
			Secret:     cfg.JWTSecret,
			TokenTTL:   cfg.TokenTTL,
			RefreshTTL: cfg.RefreshTTL,
		}),
		Analytics: an,
		Products:  services.NewProducts(stores.Catalog, cfg.Analytics.ReferenceASIN),
		Search:    services.NewSearch(database.Elastic, cfg.Elastic.Index, stores.Catalog),
		Reports:   services.NewReports(database.MinIO, cfg.MinIO.Bucket, an),
		Cache:     redis,
		CacheTTL:  cfg.DashboardCacheTTL,
		Health: map[string]bool{
			"redis":   database.Redis != nil,
			"elastic": database.Elastic != nil,
			"minio":   database.MinIO != nil,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 Serveur Proteia lancé", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Serveur arrêté", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Arrêt demandé, fermeture des connexions")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("❌ Arrêt forcé", zap.Error(err))
	}
}
