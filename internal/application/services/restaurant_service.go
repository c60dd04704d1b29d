package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/providers"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

// RestaurantService answers dashboard selection changes from the catalog
type RestaurantService struct {
	catalog    *Catalog
	projector  providers.Projector
	searchRepo repositories.RestaurantSearchRepository
	metrics    *observability.Metrics
}

// NewRestaurantService creates a new restaurant service. searchRepo may be nil
// when full-text search is not configured.
func NewRestaurantService(catalog *Catalog, projector providers.Projector, searchRepo repositories.RestaurantSearchRepository) *RestaurantService {
	return &RestaurantService{
		catalog:    catalog,
		projector:  projector,
		searchRepo: searchRepo,
	}
}

// SetMetrics enables rebuild metrics
func (s *RestaurantService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Rebuild returns a fresh dataset for sel. It keeps no state between calls,
// so the same selection always yields the same dataset.
func (s *RestaurantService) Rebuild(ctx context.Context, sel entities.Selection) (*entities.Dataset, error) {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.Rebuild")
	defer span.End()

	start := time.Now()
	dataset, err := BuildDataset(s.catalog.Restaurants(), sel, s.projector)

	matched := 0
	if dataset != nil {
		matched = len(dataset.Restaurants)
	}
	if s.metrics != nil {
		observability.RecordRebuild(ctx, s.metrics, matched, time.Since(start), err)
	}
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("Dataset rebuild failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("dataset.matched", matched),
		attribute.Int("dataset.distinct_names", dataset.MatchCount),
	)
	observability.LoggerFromContext(ctx).Debug().
		Int("matched", matched).
		Int("distinct_names", dataset.MatchCount).
		Dur("took", time.Since(start)).
		Msg("Dataset rebuilt")

	return dataset, nil
}

// FilterOptions returns the values each selector can take
func (s *RestaurantService) FilterOptions(ctx context.Context) entities.FilterOptions {
	return s.catalog.Options()
}

// Search runs a text query through the search index and projects the hits.
// Hits are resolved against the catalog by position; a hit whose position
// is outside the catalog or holds a different restaurant is dropped.
func (s *RestaurantService) Search(ctx context.Context, params repositories.SearchParams) (*entities.Dataset, error) {
	if s.searchRepo == nil {
		return nil, apperrors.NewExternalError("search is not configured", nil)
	}

	ctx, span := observability.StartSpan(ctx, "RestaurantService.Search")
	defer span.End()

	hits, err := s.searchRepo.Search(ctx, params)
	if err != nil {
		observability.RecordError(span, err)
		if apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
			return nil, err
		}
		return nil, apperrors.NewExternalError("search unavailable", err)
	}

	records, stale := s.resolveHits(hits)
	if stale > 0 {
		span.SetAttributes(attribute.Int("search.stale_hits", stale))
		observability.LoggerFromContext(ctx).Warn().
			Int("stale_hits", stale).
			Msg("Search index holds restaurants missing from the catalog")
	}

	return BuildDataset(records, params.Selection, s.projector)
}

func (s *RestaurantService) resolveHits(hits []repositories.SearchHit) ([]*entities.Restaurant, int) {
	restaurants := s.catalog.Restaurants()
	records := make([]*entities.Restaurant, 0, len(hits))
	stale := 0
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(restaurants) ||
			hit.Restaurant == nil || restaurants[hit.Position].Name != hit.Restaurant.Name {
			stale++
			continue
		}
		records = append(records, restaurants[hit.Position])
	}
	return records, stale
}
