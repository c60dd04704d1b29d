package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/providers"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
	"github.com/restaurant-guide/dashboard/pkg/mercator"
)

// Catalog is the immutable restaurant table shared by every request
type Catalog struct {
	restaurants []*entities.Restaurant
	options     entities.FilterOptions
	digest      []byte
}

// NewCatalog copies restaurants into a catalog and derives the selector options
func NewCatalog(restaurants []*entities.Restaurant) *Catalog {
	owned := make([]*entities.Restaurant, len(restaurants))
	for i, r := range restaurants {
		clone := *r
		owned[i] = &clone
	}

	digest := sha256.New()
	for _, r := range owned {
		fmt.Fprintf(digest, "%q|%v|%q|%q|%q|%q|%q|%v|%v\n",
			r.Name, r.Stars, r.State, r.City, r.Kitchen, r.Type, r.PriceRange, r.Latitude, r.Longitude)
	}

	return &Catalog{
		restaurants: owned,
		options:     filterOptions(owned),
		digest:      digest.Sum(nil),
	}
}

// LoadCatalog reads the whole table from source and checks that every row
// can be projected, so bad coordinates fail at startup rather than per request.
func LoadCatalog(ctx context.Context, source repositories.RestaurantSource, projector providers.Projector) (*Catalog, error) {
	restaurants, err := source.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i, r := range restaurants {
		if r == nil {
			return nil, apperrors.NewInvalidDataError(fmt.Sprintf("record %d is empty", i), nil)
		}
		if _, err := projector.Forward(r.Latitude, r.Longitude); err != nil {
			return nil, apperrors.NewInvalidDataError(fmt.Sprintf("record %d (%s)", i, r.Name), err)
		}
	}

	catalog := NewCatalog(restaurants)
	log.Info().
		Int("restaurants", catalog.Len()).
		Int("states", len(catalog.options.States)).
		Int("kitchens", len(catalog.options.Kitchens)).
		Int("types", len(catalog.options.Types)).
		Msg("Restaurant catalog loaded")

	return catalog, nil
}

// Restaurants returns the records in catalog order. Callers must not modify them.
func (c *Catalog) Restaurants() []*entities.Restaurant {
	return c.restaurants
}

// Len returns the number of records
func (c *Catalog) Len() int {
	return len(c.restaurants)
}

// Fingerprint identifies the records, in order, together with the projection
// settings. Anything derived from the catalog may be shared between processes
// whose fingerprints are equal.
func (c *Catalog) Fingerprint(opts mercator.Options) string {
	h := sha256.New()
	h.Write(c.digest)
	fmt.Fprintf(h, "|%s|%v", opts.ZeroLongitude, opts.MaxLatitude)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Options returns a copy of the selector options
func (c *Catalog) Options() entities.FilterOptions {
	return entities.FilterOptions{
		States:        slices.Clone(c.options.States),
		Kitchens:      slices.Clone(c.options.Kitchens),
		Types:         slices.Clone(c.options.Types),
		Prices:        entities.PriceRanges(),
		DefaultPrices: entities.DefaultPriceSelection(),
	}
}

func filterOptions(restaurants []*entities.Restaurant) entities.FilterOptions {
	return entities.FilterOptions{
		States:   distinct(restaurants, func(r *entities.Restaurant) string { return r.State }),
		Kitchens: distinct(restaurants, func(r *entities.Restaurant) string { return r.Kitchen }),
		Types:    distinct(restaurants, func(r *entities.Restaurant) string { return r.Type }),
	}
}

// distinct returns the non-empty values of field in first-appearance order
func distinct(restaurants []*entities.Restaurant, field func(*entities.Restaurant) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, r := range restaurants {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
