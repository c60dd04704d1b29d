package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 250
)

// RestaurantService is the application service behind the restaurant endpoints
type RestaurantService interface {
	Rebuild(ctx context.Context, sel entities.Selection) (*entities.Dataset, error)
	FilterOptions(ctx context.Context) entities.FilterOptions
	Search(ctx context.Context, params repositories.SearchParams) (*entities.Dataset, error)
}

// RestaurantHandler handles restaurant-related HTTP requests
type RestaurantHandler struct {
	service RestaurantService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(service RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{service: service}
}

// ListRestaurants returns the dataset for the selection in the query string.
// The dashboard calls it on every selector change.
func (h *RestaurantHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	dataset, err := h.service.Rebuild(r.Context(), sel)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dataset)
}

// GetFilterOptions returns the values each selector can take
func (h *RestaurantHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.FilterOptions(r.Context()))
}

// GetRestaurantMap returns the selection as GeoJSON map pins
func (h *RestaurantHandler) GetRestaurantMap(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	dataset, err := h.service.Rebuild(r.Context(), sel)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "application/geo+json", NewFeatureCollection(dataset))
}

// SearchRestaurants runs a text search within the selection
func (h *RestaurantHandler) SearchRestaurants(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	limit := defaultSearchLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	dataset, err := h.service.Search(r.Context(), repositories.SearchParams{
		Query:     strings.TrimSpace(r.URL.Query().Get("q")),
		Selection: sel,
		Limit:     limit,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dataset)
}

// parseSelection reads state, kitchen, type and price from the query string.
// Absent or empty values leave a dimension unfiltered. price may repeat or
// hold comma-separated labels.
func parseSelection(r *http.Request) (entities.Selection, error) {
	q := r.URL.Query()
	sel := entities.Selection{
		State:   optional(q.Get("state")),
		Kitchen: optional(q.Get("kitchen")),
		Type:    optional(q.Get("type")),
	}

	seen := make(map[entities.PriceRange]bool)
	for _, value := range q["price"] {
		for _, label := range strings.Split(value, ",") {
			label = strings.TrimSpace(label)
			if label == "" {
				continue
			}
			p, ok := entities.ParsePriceRange(label)
			if !ok {
				return entities.Selection{}, apperrors.NewValidationError(fmt.Sprintf("unknown price label %q", label))
			}
			if !seen[p] {
				seen[p] = true
				sel.Prices = append(sel.Prices, p)
			}
		}
	}

	return sel, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
