package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/restaurant-guide/dashboard/pkg/mercator"
	"github.com/restaurant-guide/dashboard/pkg/secrets"
)

// Dataset sources
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Dataset    DatasetConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	Projection ProjectionConfig
	Cache      CacheConfig
	OTEL       OTELConfig
	Log        LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatasetConfig says where the restaurant table is loaded from
type DatasetConfig struct {
	Source string
	Path   string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// ProjectionConfig holds the Web Mercator edge-case policies
type ProjectionConfig struct {
	ZeroLongitudePolicy string
	MaxLatitude         float64
}

// CacheConfig controls the HTTP response cache
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
// With VAULT_ENABLED=true the Vault secret at VAULT_PATH is exported into
// the environment before anything is read. Vault values replace .env values
// but never variables set in the process environment.
func Load() (*Config, error) {
	preset := secrets.EnvironKeys()
	_ = godotenv.Load()

	vault := secrets.ConfigFromEnv()
	vault.Preset = preset
	if _, err := secrets.Apply(context.Background(), vault); err != nil {
		return nil, fmt.Errorf("load vault secrets: %w", err)
	}

	maxLatitude, err := getEnvAsFloat("PROJECTION_MAX_LATITUDE", mercator.MaxLatitude)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Dataset: DatasetConfig{
			Source: strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV)),
			Path:   getEnv("DATASET_PATH", "data/data.csv"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "restaurant_guide"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Projection: ProjectionConfig{
			ZeroLongitudePolicy: getEnv("PROJECTION_ZERO_LONGITUDE", string(mercator.ZeroLongitudeLimit)),
			MaxLatitude:         maxLatitude,
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 300),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "restaurant-guide"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Dataset.Source != SourceCSV && cfg.Dataset.Source != SourcePostgres {
		return nil, fmt.Errorf("DATASET_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, cfg.Dataset.Source)
	}
	if _, err := cfg.Projection.Options(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Options converts the projection settings into projector options
func (c *ProjectionConfig) Options() (mercator.Options, error) {
	policy, err := mercator.ParseZeroLongitudePolicy(c.ZeroLongitudePolicy)
	if err != nil {
		return mercator.Options{}, fmt.Errorf("PROJECTION_ZERO_LONGITUDE: %w", err)
	}
	if c.MaxLatitude <= 0 || c.MaxLatitude >= 90 {
		return mercator.Options{}, fmt.Errorf("PROJECTION_MAX_LATITUDE must be in (0, 90), got %v", c.MaxLatitude)
	}
	return mercator.Options{ZeroLongitude: policy, MaxLatitude: c.MaxLatitude}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsFloat fails on malformed values rather than using the default.
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
