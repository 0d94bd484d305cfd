package services

import (
	"strings"
	"sync/atomic"

	"campus-canteen/models"
)

// DefaultFilters returns filters that admit every available item priced up to
// ceiling, at any spice level.
func DefaultFilters(priceCeiling int64) models.FilterState {
	return NormalizeFilters(models.FilterState{
		Category: models.Wildcard,
		Cuisine:  models.Wildcard,
		Dietary:  models.DietaryAll,
		PriceMin: 0,
		PriceMax: priceCeiling,
	})
}

// NormalizeFilters clamps malformed filter values into the valid domain.
// It never fails.
func NormalizeFilters(f models.FilterState) models.FilterState {
	if strings.TrimSpace(f.Category) == "" {
		f.Category = models.Wildcard
	}
	if strings.TrimSpace(f.Cuisine) == "" {
		f.Cuisine = models.Wildcard
	}
	switch f.Dietary {
	case models.DietaryVeg, models.DietaryNonVeg:
	default:
		f.Dietary = models.DietaryAll
	}
	if f.PriceMax < 0 {
		f.PriceMax = 0
	}
	if f.PriceMin < 0 {
		f.PriceMin = 0
	}
	if f.PriceMin > f.PriceMax {
		f.PriceMin = f.PriceMax
	}
	if f.MaxSpice != nil {
		n := *f.MaxSpice
		if n < 0 {
			n = 0
		}
		if n > models.MaxSpiceLevel {
			n = models.MaxSpiceLevel
		}
		f.MaxSpice = models.SpiceCap(n)
	}
	return f
}

// VisibleItems returns the items of catalog that pass every filter, in catalog order.
// Unavailable items are never returned. The input slice is not modified.
func VisibleItems(catalog []models.MenuItem, f models.FilterState) []models.MenuItem {
	f = NormalizeFilters(f)
	search := strings.ToLower(f.Search)

	visible := make([]models.MenuItem, 0, len(catalog))
	for _, item := range catalog {
		if !item.IsAvailable {
			continue
		}
		if !matchesSearch(item, search) ||
			!matchesExact(f.Category, item.Category) ||
			!matchesExact(f.Cuisine, item.Cuisine) ||
			!matchesDietary(f.Dietary, item.IsVegetarian) {
			continue
		}
		if item.Price < f.PriceMin || item.Price > f.PriceMax {
			continue
		}
		if f.MaxSpice != nil && item.Spice() > *f.MaxSpice {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

func matchesSearch(item models.MenuItem, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), lowered) ||
		strings.Contains(strings.ToLower(item.Description), lowered)
}

func matchesExact(want, got string) bool {
	return want == models.Wildcard || want == got
}

func matchesDietary(d models.Dietary, vegetarian bool) bool {
	switch d {
	case models.DietaryVeg:
		return vegetarian
	case models.DietaryNonVeg:
		return !vegetarian
	default:
		return true
	}
}

// Catalog is an immutable snapshot of the menu plus the option lists derived from it.
type Catalog struct {
	items      []models.MenuItem
	index      map[string]int
	categories []string
	cuisines   []string
}

func NewCatalog(items []models.MenuItem) *Catalog {
	c := &Catalog{
		items: make([]models.MenuItem, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		c.items[i] = item.Clone()
	}
	for i, item := range c.items {
		if _, dup := c.index[item.ID]; !dup {
			c.index[item.ID] = i
		}
	}
	c.categories = distinctOptions(c.items, func(m models.MenuItem) string { return m.Category })
	c.cuisines = distinctOptions(c.items, func(m models.MenuItem) string { return m.Cuisine })
	return c
}

// distinctOptions returns the wildcard followed by every distinct non-empty value, first-seen order.
func distinctOptions(items []models.MenuItem, field func(models.MenuItem) string) []string {
	opts := []string{models.Wildcard}
	seen := map[string]bool{models.Wildcard: true}
	for _, item := range items {
		v := field(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		opts = append(opts, v)
	}
	return opts
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of the catalog in source order.
func (c *Catalog) Items() []models.MenuItem {
	out := make([]models.MenuItem, len(c.items))
	for i, item := range c.items {
		out[i] = item.Clone()
	}
	return out
}

func (c *Catalog) Get(id string) (models.MenuItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.MenuItem{}, false
	}
	return c.items[i].Clone(), true
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c *Catalog) Cuisines() []string {
	return append([]string(nil), c.cuisines...)
}

func (c *Catalog) Visible(f models.FilterState) []models.MenuItem {
	items := VisibleItems(c.items, f)
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items
}

// CatalogHolder publishes the current catalog snapshot. Readers never see a
// partially replaced catalog.
type CatalogHolder struct {
	current atomic.Pointer[Catalog]
}

func NewCatalogHolder(c *Catalog) *CatalogHolder {
	h := &CatalogHolder{}
	if c == nil {
		c = NewCatalog(nil)
	}
	h.current.Store(c)
	return h
}

func (h *CatalogHolder) Current() *Catalog {
	return h.current.Load()
}

func (h *CatalogHolder) Replace(c *Catalog) {
	if c == nil {
		return
	}
	h.current.Store(c)
}
