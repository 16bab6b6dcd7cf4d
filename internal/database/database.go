package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"proteia_back_end/internal/config"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	catalog  string
	users    string
	mu       sync.Mutex
}

// --- Variables Globales ---
// Redis, Elastic et MinIO restent nil quand ils ne sont pas configurés
var (
	Scylla  *ScyllaManager
	SQL     *gorm.DB
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
)

// --- Initialisation ---
func ConnectDatabases(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stockage principal : ScyllaDB ou SQL
	if cfg.CatalogDriver == "scylla" {
		if err := InitScyllaDB(cfg.Scylla); err != nil {
			return fmt.Errorf("échec initialisation ScyllaDB: %w", err)
		}
	} else {
		db, err := OpenSQL(cfg.CatalogDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		SQL = db
		zap.L().Info("✅ Connecté à la base SQL", zap.String("driver", cfg.CatalogDriver))
	}

	// 2. Redis (cache dashboard, blacklist, rate limit)
	if err := connectRedis(ctx, cfg.Redis); err != nil {
		return err
	}

	// 3. Elasticsearch (recherche produits)
	if err := connectElastic(cfg.Elastic); err != nil {
		return err
	}

	// 4. MinIO (exports de rapports)
	if err := connectMinIO(ctx, cfg.MinIO); err != nil {
		return err
	}

	zap.L().Info("✅ Toutes les bases de données sont connectées")
	return nil
}

// Close ferme les connexions ouvertes
func Close() {
	if Scylla != nil {
		CloseScylla()
	}
	if Redis != nil {
		_ = Redis.Close()
	}
	if SQL != nil {
		if db, err := SQL.DB(); err == nil {
			_ = db.Close()
		}
	}
}

// =============================================
// SQL (gorm : sqlite en local, postgres en prod)
// =============================================

// OpenSQL ouvre une connexion gorm pour le driver demandé
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("driver SQL inconnu: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connexion %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite n'accepte qu'un écrivain à la fois
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return db, nil
}

// =============================================
// SCYLLA DB (Multi-Keyspaces avec SSL & Rôles)
// =============================================

// InitScyllaDB initialise le gestionnaire de sessions ScyllaDB
func InitScyllaDB(cfg config.ScyllaConfig) error {
	Scylla = &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  loadScyllaConfigs(cfg),
		catalog:  cfg.CatalogKeyspace,
		users:    cfg.UsersKeyspace,
	}

	// Créer les sessions pour chaque keyspace configuré
	for keyspace := range Scylla.configs {
		if _, err := Scylla.GetSession(keyspace); err != nil {
			return fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return nil
}

// loadScyllaConfigs : un keyspace pour le catalogue, un pour les utilisateurs
func loadScyllaConfigs(cfg config.ScyllaConfig) map[string]ScyllaKeyspaceConfig {
	configs := make(map[string]ScyllaKeyspaceConfig)

	for _, ks := range []string{cfg.CatalogKeyspace, cfg.UsersKeyspace} {
		if ks == "" {
			continue
		}
		configs[ks] = ScyllaKeyspaceConfig{
			Hosts:       cfg.Hosts,
			Keyspace:    ks,
			Username:    cfg.Username,
			Password:    cfg.Password,
			SSLEnabled:  cfg.SSLEnabled,
			CACertPath:  cfg.CACertPath,
			Timeout:     5 * time.Second,
			NumConns:    20,
			Consistency: gocql.Quorum,
		}
	}
	return configs
}

// createScyllaCluster crée une configuration de cluster pour un keyspace
func createScyllaCluster(config ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 config.CACertPath,
			EnableHostVerification: config.CACertPath != "",
		}
	}

	// Politique de sélection d'hôtes optimisée
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// GetSession retourne une session pour un keyspace donné
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	// Si la session existe déjà, la retourner
	if session, exists := sm.sessions[keyspace]; exists {
		if err := session.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return session, nil
		}
		// Si la session est invalide, la recréer
		session.Close()
	}

	session, err := createScyllaCluster(config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	zap.L().Info("✅ Nouvelle session ScyllaDB",
		zap.String("keyspace", keyspace), zap.String("user", config.Username))
	return session, nil
}

// CatalogSession retourne la session du keyspace catalogue
func (sm *ScyllaManager) CatalogSession() (*gocql.Session, error) {
	return sm.GetSession(sm.catalog)
}

// UsersSession retourne la session du keyspace utilisateurs
func (sm *ScyllaManager) UsersSession() (*gocql.Session, error) {
	return sm.GetSession(sm.users)
}

// CloseScylla ferme toutes les sessions ScyllaDB
func CloseScylla() {
	Scylla.mu.Lock()
	defer Scylla.mu.Unlock()

	for keyspace, session := range Scylla.sessions {
		session.Close()
		zap.L().Info("🔌 Session ScyllaDB fermée", zap.String("keyspace", keyspace))
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		zap.L().Warn("⚠️ REDIS_HOST absent : cache et rate limit désactivés")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("erreur connexion Redis: %w", err)
	}
	Redis = client
	zap.L().Info("✅ Connecté à Redis")
	return nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg config.ElasticConfig) error {
	if cfg.URL == "" {
		zap.L().Warn("⚠️ ELASTIC_URL absent : recherche servie par le catalogue")
		return nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("erreur création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return fmt.Errorf("erreur connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	Elastic = client
	zap.L().Info("✅ Connecté à Elasticsearch")
	return nil
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		zap.L().Warn("⚠️ MINIO_ENDPOINT absent : export de rapports désactivé")
		return nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("erreur connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("erreur vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("erreur création bucket MinIO: %w", err)
		}
		zap.L().Info("🪣 Bucket créé", zap.String("bucket", cfg.Bucket))
	} else {
		zap.L().Info("🪣 Bucket MinIO déjà présent", zap.String("bucket", cfg.Bucket))
	}

	MinIO = client
	zap.L().Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.Endpoint))
	return nil
}
