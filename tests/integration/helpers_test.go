//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/postgres"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/redis"
	"github.com/restaurant-guide/dashboard/pkg/config"
)

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

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(testContext(t), cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "restaurant_guide_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(testContext(t), cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func sampleRestaurants() []*entities.Restaurant {
	return []*entities.Restaurant{
		{Name: "Lotus of Siam", Stars: 4.5, State: "Nevada", City: "Las Vegas", Kitchen: "Asian", Type: "Restaurant", PriceRange: entities.PriceModerate, Latitude: 36.1430, Longitude: -115.1460},
		{Name: "Joel Robuchon", Stars: 4.5, State: "Nevada", City: "Las Vegas", Kitchen: "French", Type: "Restaurant", PriceRange: entities.PriceLuxury, Latitude: 36.1024, Longitude: -115.1699},
		{Name: "Pizzeria Bianco", Stars: 4.0, State: "Arizona", City: "Phoenix", Kitchen: "Italian", Type: "Restaurant", PriceRange: entities.PriceModerate, Latitude: 33.4492, Longitude: -112.0657},
		{Name: "Corner Cafe", Stars: 3.5, State: "Arizona", City: "Tempe", Kitchen: "American", Type: "Cafe", PriceRange: entities.PriceUnknown, Latitude: 33.4255, Longitude: -111.9400},
	}
}
