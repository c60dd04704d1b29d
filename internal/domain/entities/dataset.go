package entities

import "fmt"

// Dataset is the result of applying a Selection to the restaurant table
type Dataset struct {
	Restaurants []ProjectedRestaurant `json:"restaurants"`
	MatchCount  int                   `json:"match_count"`
	Title       string                `json:"title"`
}

// MatchTitle renders the heading shown above the table and map
func MatchTitle(distinctNames int) string {
	return fmt.Sprintf("Restaurant matching Preferences: %d", distinctNames)
}

// FilterOptions lists the values each dashboard selector can take
type FilterOptions struct {
	States        []string     `json:"states"`
	Kitchens      []string     `json:"kitchens"`
	Types         []string     `json:"types"`
	Prices        []PriceRange `json:"prices"`
	DefaultPrices []PriceRange `json:"default_prices"`
}
