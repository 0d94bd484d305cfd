package models

type Dietary string

const (
	DietaryAll    Dietary = Wildcard
	DietaryVeg    Dietary = "veg"
	DietaryNonVeg Dietary = "non-veg"
)

// FilterState is owned by the view layer and passed in on every recomputation.
type FilterState struct {
	Search   string  `json:"search"`
	Category string  `json:"category"`
	Cuisine  string  `json:"cuisine"`
	Dietary  Dietary `json:"dietary"`
	PriceMin int64   `json:"priceMin"`
	PriceMax int64   `json:"priceMax"`
	MaxSpice *int    `json:"maxSpice,omitempty"` // nil admits every spice level
}

// SpiceCap returns a MaxSpice value admitting spice levels up to n.
func SpiceCap(n int) *int {
	return &n
}

// SpiceLimit is the effective spice cap.
func (f FilterState) SpiceLimit() int {
	if f.MaxSpice == nil {
		return MaxSpiceLevel
	}
	return *f.MaxSpice
}
