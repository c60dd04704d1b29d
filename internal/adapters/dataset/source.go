package dataset

import (
	"context"
	"fmt"

	"github.com/restaurant-guide/dashboard/internal/adapters/database"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/postgres"
	"github.com/restaurant-guide/dashboard/pkg/config"
)

// Open returns the restaurant source selected by cfg. The returned close
// function releases any connection the source holds.
func Open(ctx context.Context, cfg *config.Config) (repositories.RestaurantSource, func() error, error) {
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		return NewCSVSource(cfg.Dataset.Path), func() error { return nil }, nil
	case config.SourcePostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return database.NewRestaurantAdapter(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported dataset source %q", cfg.Dataset.Source)
	}
}
