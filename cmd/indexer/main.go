package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/restaurant-guide/dashboard/internal/adapters/dataset"
	"github.com/restaurant-guide/dashboard/internal/adapters/search"
	"github.com/restaurant-guide/dashboard/internal/application/services"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/typesense"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
	"github.com/restaurant-guide/dashboard/pkg/config"
	"github.com/restaurant-guide/dashboard/pkg/mercator"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Log.Env, cfg.Log.Level)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	opts, err := cfg.Projection.Options()
	if err != nil {
		return err
	}
	projector, err := mercator.NewProjector(opts)
	if err != nil {
		return err
	}

	source, closeSource, err := dataset.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource(); err != nil {
			log.Warn().Err(err).Msg("Failed to close dataset source")
		}
	}()

	// Loading through the catalog rejects rows the API would refuse to serve.
	catalog, err := services.LoadCatalog(ctx, source, projector)
	if err != nil {
		return err
	}

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}
	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Deleting restaurants collection before reindexing")
		if err := adapter.Reset(ctx); err != nil {
			return err
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	start := time.Now()
	log.Info().Int("restaurants", catalog.Len()).Msg("Indexing restaurants...")
	if err := adapter.Index(ctx, catalog.Restaurants()); err != nil {
		return err
	}
	log.Info().Int("restaurants", catalog.Len()).Dur("took", time.Since(start)).Msg("Indexing finished")
	return nil
}
