package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/restaurant-guide/dashboard/internal/adapters/database"
	"github.com/restaurant-guide/dashboard/internal/adapters/dataset"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/postgres"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
	"github.com/restaurant-guide/dashboard/pkg/config"
)

// Seeds the restaurants table from the CSV export. Existing rows are
// replaced so the table order always matches the file.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Log.Env, cfg.Log.Level)

	csvPath := flag.String("csv", cfg.Dataset.Path, "path to the restaurant CSV export")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	restaurants, err := dataset.NewCSVSource(*csvPath).LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSV")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	repo := database.NewRestaurantAdapter(pgClient)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema")
	}
	if err := repo.ReplaceAll(ctx, restaurants); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed restaurants")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count restaurants")
	}
	log.Info().Str("csv", *csvPath).Int("restaurants", count).Msg("Seeding completed")
}
