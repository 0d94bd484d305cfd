package models

type MenuItem struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Price           int64    `json:"price" yaml:"price"` // whole rupees
	Category        string   `json:"category" yaml:"category"`
	Cuisine         string   `json:"cuisine" yaml:"cuisine"`
	IsVegetarian    bool     `json:"isVegetarian" yaml:"isVegetarian"`
	SpiceLevel      *int     `json:"spiceLevel,omitempty" yaml:"spiceLevel,omitempty"` // 0..5, nil if unknown
	PreparationTime int      `json:"preparationTime" yaml:"preparationTime"`            // minutes
	Rating          float64  `json:"rating" yaml:"rating"`
	ReviewCount     int      `json:"reviewCount" yaml:"reviewCount"`
	IsAvailable     bool     `json:"isAvailable" yaml:"isAvailable"`
	Allergens       []string `json:"allergens" yaml:"allergens"`
	Image           string   `json:"image,omitempty" yaml:"image,omitempty"`
}

// Spice returns the spice level, treating an unknown level as 0.
func (m MenuItem) Spice() int {
	if m.SpiceLevel == nil {
		return 0
	}
	return *m.SpiceLevel
}

// Clone returns a copy that shares no memory with m.
func (m MenuItem) Clone() MenuItem {
	if m.SpiceLevel != nil {
		level := *m.SpiceLevel
		m.SpiceLevel = &level
	}
	if m.Allergens != nil {
		m.Allergens = append([]string{}, m.Allergens...)
	}
	return m
}

const (
	MaxSpiceLevel = 5
	Wildcard      = "all"
)
