package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	tsclient "github.com/restaurant-guide/dashboard/internal/infrastructure/clients/typesense"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

const (
	collectionName  = "restaurants"
	defaultLimit    = 50
	maxLimit        = 250
	searchQueryBy   = "name,city,cat_kitchen,cat_type"
	searchSortBy    = "_text_match:desc,position:asc"
	positionField   = "position"
	priceRangeField = "price_range"
	stateField      = "state_name"
	kitchenField    = "cat_kitchen"
	typeField       = "cat_type"
	locationField   = "location"
)

// TypesenseAdapter implements restaurant search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.RestaurantSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: positionField, Type: "int32"},
			{Name: "name", Type: "string"},
			{Name: "stars", Type: "float", Facet: pointer.True()},
			{Name: stateField, Type: "string", Facet: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: kitchenField, Type: "string", Facet: pointer.True()},
			{Name: typeField, Type: "string", Facet: pointer.True()},
			{Name: priceRangeField, Type: "string", Facet: pointer.True()},
			{Name: locationField, Type: "geopoint"},
		},
		DefaultSortingField: pointer.String(positionField),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	log.Info().Str("collection", collectionName).Msg("Created Typesense collection")
	return nil
}

// Index upserts every restaurant. The slice position becomes the document
// id and the catalog order used to break relevance ties. Documents left over
// from a longer table are deleted afterwards.
func (a *TypesenseAdapter) Index(ctx context.Context, restaurants []*entities.Restaurant) error {
	documents := a.client.Client().Collection(collectionName).Documents()
	for i, r := range restaurants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := documents.Upsert(ctx, toDocument(i, r)); err != nil {
			return fmt.Errorf("failed to index restaurant %d (%s): %w", i, r.Name, err)
		}
	}

	deleted, err := documents.Delete(ctx, &api.DeleteDocumentsParams{
		FilterBy: pointer.String(staleFilter(len(restaurants))),
	})
	if err != nil {
		return fmt.Errorf("failed to delete stale restaurants: %w", err)
	}
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Removed stale restaurants from search index")
	}
	return nil
}

// Reset drops the collection; a missing collection is not an error
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Delete(ctx)
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to drop typesense collection: %w", err)
	}
	return nil
}

// Search searches restaurants by text within the selection
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]repositories.SearchHit, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String(searchQueryBy),
		SortBy:  pointer.String(searchSortBy),
		PerPage: pointer.Int(limit),
	}
	filter, err := buildFilterBy(params.Selection)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search restaurants: %w", err)
	}

	hits := []repositories.SearchHit{}
	if result.Hits == nil {
		return hits, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		position, ok := positionOf(*hit.Document)
		if !ok {
			continue
		}
		hits = append(hits, repositories.SearchHit{Position: position, Restaurant: fromDocument(*hit.Document)})
	}
	return hits, nil
}

func toDocument(position int, r *entities.Restaurant) map[string]interface{} {
	return map[string]interface{}{
		"id":            strconv.Itoa(position),
		positionField:   position,
		"name":          r.Name,
		"stars":         r.Stars,
		stateField:      r.State,
		"city":          r.City,
		kitchenField:    r.Kitchen,
		typeField:       r.Type,
		priceRangeField: string(r.PriceRange),
		locationField:   []float64{r.Latitude, r.Longitude},
	}
}

func fromDocument(doc map[string]interface{}) *entities.Restaurant {
	r := &entities.Restaurant{
		Name:       stringField(doc, "name"),
		Stars:      floatField(doc, "stars"),
		State:      stringField(doc, stateField),
		City:       stringField(doc, "city"),
		Kitchen:    stringField(doc, kitchenField),
		Type:       stringField(doc, typeField),
		PriceRange: entities.PriceUnknown,
	}
	if p, ok := entities.ParsePriceRange(stringField(doc, priceRangeField)); ok {
		r.PriceRange = p
	}
	if loc, ok := doc[locationField].([]interface{}); ok && len(loc) == 2 {
		r.Latitude, _ = loc[0].(float64)
		r.Longitude, _ = loc[1].(float64)
	}
	return r
}

func positionOf(doc map[string]interface{}) (int, bool) {
	f, ok := doc[positionField].(float64)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func staleFilter(keep int) string {
	return positionField + ":>=" + strconv.Itoa(keep)
}

func stringField(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

func floatField(doc map[string]interface{}, key string) float64 {
	f, _ := doc[key].(float64)
	return f
}

// buildFilterBy renders a selection as a Typesense filter_by expression.
// Values are backtick-quoted, so a value containing a backtick cannot be
// expressed and is rejected.
func buildFilterBy(sel entities.Selection) (string, error) {
	var clauses []string
	for _, c := range []struct {
		field string
		value *string
	}{
		{stateField, sel.State},
		{kitchenField, sel.Kitchen},
		{typeField, sel.Type},
	} {
		if c.value == nil {
			continue
		}
		quoted, err := quoteFilterValue(c.field, *c.value)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, c.field+":="+quoted)
	}
	if len(sel.Prices) > 0 {
		values := make([]string, len(sel.Prices))
		for i, p := range sel.Prices {
			quoted, err := quoteFilterValue(priceRangeField, string(p))
			if err != nil {
				return "", err
			}
			values[i] = quoted
		}
		clauses = append(clauses, priceRangeField+":=["+strings.Join(values, ",")+"]")
	}
	return strings.Join(clauses, " && "), nil
}

func quoteFilterValue(field, v string) (string, error) {
	if strings.Contains(v, "`") {
		return "", apperrors.NewValidationError(fmt.Sprintf("%s value %q cannot contain a backtick", field, v))
	}
	return "`" + v + "`", nil
}
