package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/restaurant-guide/dashboard/internal/adapters/cache"
	"github.com/restaurant-guide/dashboard/internal/adapters/dataset"
	"github.com/restaurant-guide/dashboard/internal/adapters/search"
	"github.com/restaurant-guide/dashboard/internal/api/handlers"
	"github.com/restaurant-guide/dashboard/internal/api/middleware"
	"github.com/restaurant-guide/dashboard/internal/api/routes"
	"github.com/restaurant-guide/dashboard/internal/application/services"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/redis"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/typesense"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
	"github.com/restaurant-guide/dashboard/pkg/config"
	"github.com/restaurant-guide/dashboard/pkg/mercator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	opts, err := cfg.Projection.Options()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid projection settings")
	}
	projector, err := mercator.NewProjector(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create projector")
	}

	// The catalog is loaded once; a bad row stops startup.
	source, closeSource, err := dataset.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Dataset.Source).Msg("Failed to open dataset")
	}
	catalog, err := services.LoadCatalog(ctx, source, projector)
	if closeErr := closeSource(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to close dataset source")
	}
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Dataset.Source).Msg("Failed to load restaurant catalog")
	}

	// Redis is optional; without it responses are not cached
	var cacheMiddleware *middleware.CacheMiddleware
	if cfg.Cache.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without response cache")
		} else {
			defer redisClient.Close()
			fingerprint := catalog.Fingerprint(opts)
			cacheMiddleware = middleware.NewCacheMiddleware(cache.NewRedisAdapter(redisClient), cfg.Cache.TTLSeconds, fingerprint)
			cacheMiddleware.SetMetrics(metrics)
			log.Info().Str("catalog", fingerprint).Msg("Response cache enabled")
		}
	}

	var searchRepo repositories.RestaurantSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, search endpoint disabled")
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			searchRepo = adapter
		}
	}

	restaurantService := services.NewRestaurantService(catalog, projector, searchRepo)
	restaurantService.SetMetrics(metrics)

	router := routes.NewRouter(
		handlers.NewRestaurantHandler(restaurantService),
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Int("restaurants", catalog.Len()).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
