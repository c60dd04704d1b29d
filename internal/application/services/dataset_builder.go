package services

import (
	"fmt"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/providers"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

// BuildDataset filters records by sel and projects every match.
//
// Set selectors are combined conjunctively and matches keep their order in
// records. The match count is the number of distinct names, so branches of
// one chain count once. An empty result is a valid Dataset.
func BuildDataset(records []*entities.Restaurant, sel entities.Selection, projector providers.Projector) (*entities.Dataset, error) {
	matches := make([]entities.ProjectedRestaurant, 0)
	names := make(map[string]struct{})

	for i, r := range records {
		if !sel.Matches(r) {
			continue
		}

		pt, err := projector.Forward(r.Latitude, r.Longitude)
		if err != nil {
			return nil, apperrors.NewInvalidDataError(fmt.Sprintf("record %d (%s)", i, r.Name), err)
		}

		matches = append(matches, entities.ProjectedRestaurant{
			Restaurant: *r,
			MercatorX:  pt.X,
			MercatorY:  pt.Y,
		})
		names[r.Name] = struct{}{}
	}

	return &entities.Dataset{
		Restaurants: matches,
		MatchCount:  len(names),
		Title:       entities.MatchTitle(len(names)),
	}, nil
}
