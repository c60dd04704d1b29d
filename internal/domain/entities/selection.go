package entities

// Selection is the set of filter choices for one dashboard update.
//
// A nil State, Kitchen or Type and an empty Prices set leave that dimension
// unfiltered. Set dimensions are combined conjunctively.
type Selection struct {
	State   *string
	Kitchen *string
	Type    *string
	Prices  []PriceRange
}

// Only returns a pointer to value, for building a Selection
func Only(value string) *string {
	return &value
}

// IsUnfiltered reports whether no dimension is set
func (s Selection) IsUnfiltered() bool {
	return s.State == nil && s.Kitchen == nil && s.Type == nil && len(s.Prices) == 0
}

// Matches reports whether r satisfies every set dimension
func (s Selection) Matches(r *Restaurant) bool {
	if r == nil {
		return false
	}
	if s.State != nil && r.State != *s.State {
		return false
	}
	if s.Kitchen != nil && r.Kitchen != *s.Kitchen {
		return false
	}
	if s.Type != nil && r.Type != *s.Type {
		return false
	}
	if len(s.Prices) > 0 && !s.hasPrice(r.PriceRange) {
		return false
	}
	return true
}

func (s Selection) hasPrice(p PriceRange) bool {
	for _, want := range s.Prices {
		if want == p {
			return true
		}
	}
	return false
}
