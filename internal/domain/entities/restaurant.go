package entities

import "strings"

// PriceRange is the relative cost tier of a restaurant
type PriceRange string

const (
	PriceBudget    PriceRange = "$"
	PriceModerate  PriceRange = "$$"
	PriceExpensive PriceRange = "$$$"
	PriceLuxury    PriceRange = "$$$$"
	PriceUnknown   PriceRange = "Unknown"
)

var priceRanges = []PriceRange{PriceBudget, PriceModerate, PriceExpensive, PriceLuxury, PriceUnknown}

// PriceRanges returns every price label in ordinal order
func PriceRanges() []PriceRange {
	out := make([]PriceRange, len(priceRanges))
	copy(out, priceRanges)
	return out
}

// DefaultPriceSelection returns the tiers the dashboard pre-selects
func DefaultPriceSelection() []PriceRange {
	return []PriceRange{PriceExpensive, PriceLuxury}
}

// ParsePriceRange maps a label onto a known price range. Matching is exact
// for the dollar tiers and case-insensitive for "Unknown".
func ParsePriceRange(label string) (PriceRange, bool) {
	label = strings.TrimSpace(label)
	for _, p := range priceRanges {
		if string(p) == label {
			return p, true
		}
	}
	if strings.EqualFold(label, string(PriceUnknown)) {
		return PriceUnknown, true
	}
	return "", false
}

// Restaurant is one row of the read-only restaurant table
type Restaurant struct {
	Name       string     `json:"name" db:"name"`
	Stars      float64    `json:"stars" db:"stars"`
	State      string     `json:"state_name" db:"state_name"`
	City       string     `json:"city" db:"city"`
	Kitchen    string     `json:"cat_kitchen" db:"cat_kitchen"`
	Type       string     `json:"cat_type" db:"cat_type"`
	PriceRange PriceRange `json:"PriceRange" db:"price_range"`
	Latitude   float64    `json:"latitude" db:"latitude"`
	Longitude  float64    `json:"longitude" db:"longitude"`
}

// ProjectedRestaurant is a restaurant with its Web Mercator position
type ProjectedRestaurant struct {
	Restaurant
	MercatorX float64 `json:"mercator_x"`
	MercatorY float64 `json:"mercator_y"`
}
