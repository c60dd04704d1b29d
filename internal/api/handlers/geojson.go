package handlers

import "github.com/restaurant-guide/dashboard/internal/domain/entities"

// FeatureCollection is a GeoJSON feature collection of restaurant pins.
// Title and MatchCount are foreign members carrying the dataset heading.
type FeatureCollection struct {
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	MatchCount int       `json:"match_count"`
	Features   []Feature `json:"features"`
}

// Feature is one restaurant pin
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   PointGeometry          `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// PointGeometry is a GeoJSON Point in [longitude, latitude] order
type PointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewFeatureCollection converts a dataset into map pins. Properties carry the
// hover tooltip fields and the projected position.
func NewFeatureCollection(dataset *entities.Dataset) FeatureCollection {
	features := make([]Feature, 0, len(dataset.Restaurants))
	for _, r := range dataset.Restaurants {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: []float64{r.Longitude, r.Latitude},
			},
			Properties: map[string]interface{}{
				"name":        r.Name,
				"stars":       r.Stars,
				"city":        r.City,
				"state_name":  r.State,
				"cat_kitchen": r.Kitchen,
				"cat_type":    r.Type,
				"PriceRange":  r.PriceRange,
				"mercator_x":  r.MercatorX,
				"mercator_y":  r.MercatorY,
			},
		})
	}

	return FeatureCollection{
		Type:       "FeatureCollection",
		Title:      dataset.Title,
		MatchCount: dataset.MatchCount,
		Features:   features,
	}
}
