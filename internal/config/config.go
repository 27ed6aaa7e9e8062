package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Database  DatabaseConfig
	CatalogDB CatalogDBConfig
	AuditDB   AuditDBConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"catalog-rest-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds in-memory cache settings and the Redis connection used
// for session tokens.
type CacheConfig struct {
	WeightBudget   int64         `envconfig:"CACHE_WEIGHT_BUDGET" default:"1000"`
	MaxEntryWeight int64         `envconfig:"CACHE_MAX_ENTRY_WEIGHT" default:"100"`
	ListTTL        time.Duration `envconfig:"CACHE_LIST_TTL" default:"30s"`
	ProductTTL     time.Duration `envconfig:"CACHE_PRODUCT_TTL" default:"5m"`
	CategoryTTL    time.Duration `envconfig:"CACHE_CATEGORY_TTL" default:"10m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
}

// RateLimitConfig holds the fixed-window rate limit policies.
type RateLimitConfig struct {
	GlobalPermits int           `envconfig:"RATELIMIT_GLOBAL_PERMITS" default:"50000"`
	GlobalWindow  time.Duration `envconfig:"RATELIMIT_GLOBAL_WINDOW" default:"30s"`
	GlobalQueue   int           `envconfig:"RATELIMIT_GLOBAL_QUEUE" default:"50000"`

	WritePermits int           `envconfig:"RATELIMIT_WRITE_PERMITS" default:"20000"`
	WriteWindow  time.Duration `envconfig:"RATELIMIT_WRITE_WINDOW" default:"30s"`
	WriteQueue   int           `envconfig:"RATELIMIT_WRITE_QUEUE" default:"50000"`
}

// DatabaseConfig holds MySQL connection settings (for accounts).
type DatabaseConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"catalog"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// CatalogDBConfig holds catalog database settings.
type CatalogDBConfig struct {
	Type string `envconfig:"CATALOG_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"CATALOG_DB_PATH" default:"./data/catalog.db"`
	// PostgreSQL settings
	Host     string `envconfig:"CATALOG_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"CATALOG_DB_PORT" default:"5432"`
	Name     string `envconfig:"CATALOG_DB_NAME" default:"catalog"`
	User     string `envconfig:"CATALOG_DB_USER" default:"postgres"`
	Password string `envconfig:"CATALOG_DB_PASS" default:""`
	SSLMode  string `envconfig:"CATALOG_DB_SSLMODE" default:"disable"`
}

// AuditDBConfig holds MongoDB settings for bulk run audit records.
type AuditDBConfig struct {
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"catalog"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"bulk_runs"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *CatalogDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
