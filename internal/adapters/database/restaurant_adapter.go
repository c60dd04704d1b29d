package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

const (
	restaurantsTable = "restaurants"
	insertBatchSize  = 500
)

const createRestaurantsTable = `CREATE TABLE IF NOT EXISTS restaurants (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	stars DOUBLE PRECISION NOT NULL,
	state_name TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	cat_kitchen TEXT NOT NULL DEFAULT '',
	cat_type TEXT NOT NULL DEFAULT '',
	price_range TEXT NOT NULL DEFAULT 'Unknown',
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
)`

// RestaurantAdapter implements RestaurantRepository on PostgreSQL
type RestaurantAdapter struct {
	db   *sqlx.DB
	goqu *goqu.Database
}

var _ repositories.RestaurantRepository = (*RestaurantAdapter)(nil)

// NewRestaurantAdapter creates a new restaurant adapter
func NewRestaurantAdapter(client *postgres.Client) *RestaurantAdapter {
	return newRestaurantAdapter(client.DBX())
}

func newRestaurantAdapter(db *sqlx.DB) *RestaurantAdapter {
	return &RestaurantAdapter{
		db:   db,
		goqu: goqu.New("postgres", db),
	}
}

type restaurantRow struct {
	ID         int64           `db:"id"`
	Name       sql.NullString  `db:"name"`
	Stars      sql.NullFloat64 `db:"stars"`
	State      sql.NullString  `db:"state_name"`
	City       sql.NullString  `db:"city"`
	Kitchen    sql.NullString  `db:"cat_kitchen"`
	Type       sql.NullString  `db:"cat_type"`
	PriceRange sql.NullString  `db:"price_range"`
	Latitude   sql.NullFloat64 `db:"latitude"`
	Longitude  sql.NullFloat64 `db:"longitude"`
}

// EnsureSchema creates the restaurants table if it does not exist
func (a *RestaurantAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, createRestaurantsTable); err != nil {
		return apperrors.NewInternalError("failed to create restaurants table", err)
	}
	return nil
}

// LoadAll returns every restaurant in insertion order
func (a *RestaurantAdapter) LoadAll(ctx context.Context) ([]*entities.Restaurant, error) {
	query, args, err := a.goqu.From(restaurantsTable).
		Select("id", "name", "stars", "state_name", "city", "cat_kitchen", "cat_type", "price_range", "latitude", "longitude").
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	var rows []restaurantRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load restaurants", err)
	}

	restaurants := make([]*entities.Restaurant, 0, len(rows))
	for _, row := range rows {
		r, err := row.toEntity()
		if err != nil {
			return nil, apperrors.NewInvalidDataError(fmt.Sprintf("restaurant id %d", row.ID), err)
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}

// ReplaceAll truncates the table and inserts restaurants in one transaction
func (a *RestaurantAdapter) ReplaceAll(ctx context.Context, restaurants []*entities.Restaurant) error {
	truncate, _, err := a.goqu.Truncate(restaurantsTable).Identity("RESTART").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build truncate query", err)
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, truncate); err != nil {
		return apperrors.NewInternalError("failed to clear restaurants", err)
	}

	for start := 0; start < len(restaurants); start += insertBatchSize {
		end := min(start+insertBatchSize, len(restaurants))
		rows := make([]interface{}, 0, end-start)
		for _, r := range restaurants[start:end] {
			rows = append(rows, goqu.Record{
				"name":        r.Name,
				"stars":       r.Stars,
				"state_name":  r.State,
				"city":        r.City,
				"cat_kitchen": r.Kitchen,
				"cat_type":    r.Type,
				"price_range": string(r.PriceRange),
				"latitude":    r.Latitude,
				"longitude":   r.Longitude,
			})
		}

		query, args, err := a.goqu.Insert(restaurantsTable).Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to insert restaurants %d-%d", start, end-1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit restaurants", err)
	}
	return nil
}

// Count returns the number of stored restaurants
func (a *RestaurantAdapter) Count(ctx context.Context) (int, error) {
	query, args, err := a.goqu.From(restaurantsTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to count restaurants", err)
	}
	return count, nil
}

func (row restaurantRow) toEntity() (*entities.Restaurant, error) {
	if !row.Name.Valid {
		return nil, fmt.Errorf("missing name")
	}
	if !row.Stars.Valid {
		return nil, fmt.Errorf("missing stars")
	}
	if !row.Latitude.Valid || !row.Longitude.Valid {
		return nil, fmt.Errorf("missing coordinates")
	}

	price := entities.PriceUnknown
	if row.PriceRange.Valid && row.PriceRange.String != "" {
		p, ok := entities.ParsePriceRange(row.PriceRange.String)
		if !ok {
			return nil, fmt.Errorf("unknown price_range %q", row.PriceRange.String)
		}
		price = p
	}

	return &entities.Restaurant{
		Name:       row.Name.String,
		Stars:      row.Stars.Float64,
		State:      row.State.String,
		City:       row.City.String,
		Kitchen:    row.Kitchen.String,
		Type:       row.Type.String,
		PriceRange: price,
		Latitude:   row.Latitude.Float64,
		Longitude:  row.Longitude.Float64,
	}, nil
}
