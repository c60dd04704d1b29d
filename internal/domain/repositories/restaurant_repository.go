package repositories

import (
	"context"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
)

// RestaurantSource loads the full restaurant table in catalog order
type RestaurantSource interface {
	LoadAll(ctx context.Context) ([]*entities.Restaurant, error)
}

// RestaurantRepository defines the interface for restaurant persistence
type RestaurantRepository interface {
	RestaurantSource

	// EnsureSchema creates the restaurants table if it does not exist
	EnsureSchema(ctx context.Context) error

	// ReplaceAll swaps the stored table for restaurants, keeping their order
	ReplaceAll(ctx context.Context, restaurants []*entities.Restaurant) error

	// Count returns the number of stored rows
	Count(ctx context.Context) (int, error)
}

// RestaurantSearchRepository defines the interface for full-text restaurant search (e.g. Typesense)
type RestaurantSearchRepository interface {
	// InitSchema creates the search collection if missing
	InitSchema(ctx context.Context) error

	// Index upserts restaurants, using their slice position as catalog order,
	// and removes documents positioned past the end of the slice
	Index(ctx context.Context, restaurants []*entities.Restaurant) error

	// Search runs a text query constrained by a selection
	Search(ctx context.Context, params SearchParams) ([]SearchHit, error)

	// Reset drops the search collection
	Reset(ctx context.Context) error
}

// SearchParams defines parameters for restaurant search
type SearchParams struct {
	Query     string
	Selection entities.Selection
	Limit     int
}

// SearchHit is one indexed document: its catalog position and the record as
// it was indexed
type SearchHit struct {
	Position   int
	Restaurant *entities.Restaurant
}
