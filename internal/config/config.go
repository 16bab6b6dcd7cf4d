package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"proteia_back_end/internal/analytics"
)

type ScyllaConfig struct {
	Hosts           []string
	CatalogKeyspace string
	UsersKeyspace   string
	Username        string
	Password        string
	SSLEnabled      bool
	CACertPath      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type Config struct {
	Port string
	Env  string

	// scylla | sqlite | postgres
	CatalogDriver string
	DatabaseDSN   string

	JWTSecret         string
	TokenTTL          time.Duration
	RefreshTTL        time.Duration
	DashboardCacheTTL time.Duration
	CORSOrigins       []string

	Scylla  ScyllaConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig

	Analytics analytics.Config
}

// LoadDotEnv charge .env s'il existe ; false si absent
func LoadDotEnv() bool {
	return godotenv.Load(".env") == nil
}

// Load construit la configuration depuis l'environnement
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("APP_ENV", "production"),
		CatalogDriver: strings.ToLower(getEnv("CATALOG_DRIVER", "sqlite")),
		DatabaseDSN:   getEnv("DATABASE_DSN", "proteia.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		Scylla: ScyllaConfig{
			Hosts:           getList("SCYLLA_HOSTS", []string{"127.0.0.1"}),
			CatalogKeyspace: getEnv("SCYLLA_KS_CATALOG_KEYSPACE", "proteia_catalog"),
			UsersKeyspace:   getEnv("SCYLLA_KS_USERS_KEYSPACE", "proteia_users"),
			Username:        os.Getenv("SCYLLA_USERNAME"),
			Password:        os.Getenv("SCYLLA_PASSWORD"),
			SSLEnabled:      strings.EqualFold(os.Getenv("SCYLLA_SSL_ENABLED"), "true"),
			CACertPath:      os.Getenv("SCYLLA_SSL_CA_PATH"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Elastic: ElasticConfig{
			URL:      os.Getenv("ELASTIC_URL"),
			User:     os.Getenv("ELASTIC_USER"),
			Password: os.Getenv("ELASTIC_PASSWORD"),
			Index:    getEnv("ELASTIC_INDEX", "products"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
			Bucket:    getEnv("MINIO_BUCKET", "proteia-reports"),
		},
	}

	var err error
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = getDuration("REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DashboardCacheTTL, err = getDuration("DASHBOARD_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	switch cfg.CatalogDriver {
	case "scylla", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("CATALOG_DRIVER inconnu: %q", cfg.CatalogDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET obligatoire en production")
		}
		cfg.JWTSecret = "dev_secret_change_me"
	}

	if cfg.Analytics, err = LoadAnalytics(os.Getenv("ANALYTICS_CONFIG")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s invalide: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s invalide: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s doit être positif", key)
	}
	return d, nil
}
