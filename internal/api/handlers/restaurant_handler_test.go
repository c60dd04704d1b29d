package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-guide/dashboard/internal/api/handlers"
	"github.com/restaurant-guide/dashboard/internal/domain/entities"
	"github.com/restaurant-guide/dashboard/internal/domain/repositories"
	apperrors "github.com/restaurant-guide/dashboard/pkg/errors"
)

type MockRestaurantService struct {
	mock.Mock
}

func (m *MockRestaurantService) Rebuild(ctx context.Context, sel entities.Selection) (*entities.Dataset, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Dataset), args.Error(1)
}

func (m *MockRestaurantService) FilterOptions(ctx context.Context) entities.FilterOptions {
	return m.Called(ctx).Get(0).(entities.FilterOptions)
}

func (m *MockRestaurantService) Search(ctx context.Context, params repositories.SearchParams) (*entities.Dataset, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Dataset), args.Error(1)
}

func sampleDataset() *entities.Dataset {
	return &entities.Dataset{
		Restaurants: []entities.ProjectedRestaurant{
			{
				Restaurant: entities.Restaurant{
					Name:       "Joel Robuchon",
					Stars:      4.5,
					State:      "Nevada",
					City:       "Las Vegas",
					Kitchen:    "French",
					Type:       "Restaurant",
					PriceRange: entities.PriceLuxury,
					Latitude:   36.1024,
					Longitude:  -115.1699,
				},
				MercatorX: -12820829.1,
				MercatorY: 4316327.7,
			},
		},
		MatchCount: 1,
		Title:      "Restaurant matching Preferences: 1",
	}
}

func serve(handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRestaurantHandler_ListRestaurants(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	want := entities.Selection{
		State:  entities.Only("Nevada"),
		Type:   entities.Only("Restaurant"),
		Prices: []entities.PriceRange{entities.PriceExpensive, entities.PriceLuxury},
	}
	mockService.On("Rebuild", mock.Anything, want).Return(sampleDataset(), nil)

	rr := serve(handler.ListRestaurants, "/api/restaurants?state=Nevada&type=Restaurant&kitchen=&price=$$$&price=$$$$")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body entities.Dataset
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.MatchCount)
	assert.Equal(t, "Restaurant matching Preferences: 1", body.Title)
	require.Len(t, body.Restaurants, 1)
	assert.Equal(t, "Joel Robuchon", body.Restaurants[0].Name)
	assert.Equal(t, entities.PriceLuxury, body.Restaurants[0].PriceRange)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_ListRestaurants_ResponseFields(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)
	mockService.On("Rebuild", mock.Anything, entities.Selection{}).Return(sampleDataset(), nil)

	rr := serve(handler.ListRestaurants, "/api/restaurants")
	require.Equal(t, http.StatusOK, rr.Code)

	var raw struct {
		Restaurants []map[string]interface{} `json:"restaurants"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.Len(t, raw.Restaurants, 1)
	for _, key := range []string{"name", "stars", "state_name", "city", "cat_kitchen", "cat_type", "PriceRange", "latitude", "longitude", "mercator_x", "mercator_y"} {
		assert.Contains(t, raw.Restaurants[0], key)
	}
}

func TestRestaurantHandler_ListRestaurants_CommaSeparatedPrices(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	want := entities.Selection{Prices: []entities.PriceRange{entities.PriceBudget, entities.PriceModerate, entities.PriceUnknown}}
	mockService.On("Rebuild", mock.Anything, want).Return(&entities.Dataset{Restaurants: []entities.ProjectedRestaurant{}, Title: "Restaurant matching Preferences: 0"}, nil)

	rr := serve(handler.ListRestaurants, "/api/restaurants?price=$,$$&price=Unknown&price=$")

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_ListRestaurants_UnknownPrice(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	rr := serve(handler.ListRestaurants, "/api/restaurants?price=cheap")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, `unknown price label "cheap"`, body["error"])
	mockService.AssertNotCalled(t, "Rebuild", mock.Anything, mock.Anything)
}

func TestRestaurantHandler_ListRestaurants_ServiceError(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)
	mockService.On("Rebuild", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	rr := serve(handler.ListRestaurants, "/api/restaurants")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestRestaurantHandler_GetFilterOptions(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	opts := entities.FilterOptions{
		States:        []string{"Arizona", "Nevada"},
		Kitchens:      []string{"Italian"},
		Types:         []string{"Restaurant"},
		Prices:        entities.PriceRanges(),
		DefaultPrices: entities.DefaultPriceSelection(),
	}
	mockService.On("FilterOptions", mock.Anything).Return(opts)

	rr := serve(handler.GetFilterOptions, "/api/filters")

	require.Equal(t, http.StatusOK, rr.Code)
	var body entities.FilterOptions
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, opts, body)
}

func TestRestaurantHandler_GetRestaurantMap(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)
	mockService.On("Rebuild", mock.Anything, entities.Selection{Kitchen: entities.Only("French")}).Return(sampleDataset(), nil)

	rr := serve(handler.GetRestaurantMap, "/api/restaurants/map?kitchen=French")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))

	var fc handlers.FeatureCollection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, 1, fc.MatchCount)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{-115.1699, 36.1024}, f.Geometry.Coordinates)
	assert.Equal(t, "Joel Robuchon", f.Properties["name"])
	assert.Equal(t, 4.5, f.Properties["stars"])
	assert.Equal(t, -12820829.1, f.Properties["mercator_x"])
}

func TestRestaurantHandler_GetRestaurantMap_Empty(t *testing.T) {
	fc := handlers.NewFeatureCollection(&entities.Dataset{Title: "Restaurant matching Preferences: 0"})

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","title":"Restaurant matching Preferences: 0","match_count":0,"features":[]}`, string(data))
}

func TestRestaurantHandler_SearchRestaurants(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	params := repositories.SearchParams{
		Query:     "robuchon",
		Selection: entities.Selection{State: entities.Only("Nevada")},
		Limit:     10,
	}
	mockService.On("Search", mock.Anything, params).Return(sampleDataset(), nil)

	rr := serve(handler.SearchRestaurants, "/api/restaurants/search?q=robuchon&state=Nevada&limit=10")

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_SearchRestaurants_DefaultAndMaxLimit(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)

	mockService.On("Search", mock.Anything, repositories.SearchParams{Query: "taco", Limit: 50}).Return(sampleDataset(), nil).Once()
	mockService.On("Search", mock.Anything, repositories.SearchParams{Query: "taco", Limit: 250}).Return(sampleDataset(), nil).Once()

	assert.Equal(t, http.StatusOK, serve(handler.SearchRestaurants, "/api/restaurants/search?q=taco").Code)
	assert.Equal(t, http.StatusOK, serve(handler.SearchRestaurants, "/api/restaurants/search?q=taco&limit=9999").Code)
	assert.Equal(t, http.StatusBadRequest, serve(handler.SearchRestaurants, "/api/restaurants/search?q=taco&limit=-1").Code)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_SearchRestaurants_NotConfigured(t *testing.T) {
	mockService := new(MockRestaurantService)
	handler := handlers.NewRestaurantHandler(mockService)
	mockService.On("Search", mock.Anything, mock.Anything).Return(nil, apperrors.NewExternalError("search is not configured", nil))

	rr := serve(handler.SearchRestaurants, "/api/restaurants/search?q=pizza")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "search is not configured")
}
