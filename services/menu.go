package services

import (
	"context"
	"os"
	"time"

	"campus-canteen/db"
	"campus-canteen/logger"
	"campus-canteen/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CatalogSource supplies the full menu at startup and on refresh.
type CatalogSource interface {
	LoadCatalog(ctx context.Context) ([]models.MenuItem, error)
}

// ValidateMenu rejects catalogs the core cannot index: empty or repeated ids,
// negative prices and spice levels outside 0..5.
func ValidateMenu(items []models.MenuItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item.ID == "" {
			return errors.Errorf("menu item #%d (%q) has no id", i, item.Name)
		}
		if seen[item.ID] {
			return errors.Errorf("duplicate menu item id %q", item.ID)
		}
		seen[item.ID] = true
		if item.Price < 0 {
			return errors.Errorf("menu item %q: price must be >= 0", item.ID)
		}
		if item.SpiceLevel != nil && (*item.SpiceLevel < 0 || *item.SpiceLevel > models.MaxSpiceLevel) {
			return errors.Errorf("menu item %q: spice level %d out of range 0..%d", item.ID, *item.SpiceLevel, models.MaxSpiceLevel)
		}
	}
	return nil
}

// LoadCatalog reads src, validates the result and wraps it in a Catalog.
func LoadCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	items, err := src.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := ValidateMenu(items); err != nil {
		return nil, err
	}
	return NewCatalog(items), nil
}

// RefreshCatalog reloads src every interval and publishes the result through h
// until ctx is done. A failed reload keeps the previous catalog.
func RefreshCatalog(ctx context.Context, h *CatalogHolder, src CatalogSource, interval time.Duration) {
	log := logger.GetLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c, err := LoadCatalog(ctx, src)
			if err != nil {
				log.Errorf("failed to reload catalog: %v", err)
				continue
			}
			h.Replace(c)
			log.Debugf("catalog reloaded: %d items", c.Len())
		}
	}
}

type menuFile struct {
	Items []models.MenuItem `yaml:"items"`
}

// FileCatalogSource reads the menu from a YAML document with a top-level "items" list.
type FileCatalogSource struct {
	Path string
}

func (s FileCatalogSource) LoadCatalog(ctx context.Context) ([]models.MenuItem, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog file %s", s.Path)
	}
	return ParseMenuYAML(data)
}

func ParseMenuYAML(data []byte) ([]models.MenuItem, error) {
	var doc menuFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse catalog yaml")
	}
	return doc.Items, nil
}

// PostgresCatalogSource reads menu_items in insertion order.
type PostgresCatalogSource struct{}

func (PostgresCatalogSource) LoadCatalog(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, description, price, category, cuisine, is_vegetarian,
		       spice_level, preparation_time, rating, review_count, is_available,
		       allergens, image
		FROM menu_items
		ORDER BY position, id`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query menu items")
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		var spice *int16
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.Cuisine, &item.IsVegetarian, &spice, &item.PreparationTime,
			&item.Rating, &item.ReviewCount, &item.IsAvailable, &item.Allergens, &item.Image,
		); err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		if spice != nil {
			level := int(*spice)
			item.SpiceLevel = &level
		}
		items = append(items, item)
	}
	return items, errors.Wrap(rows.Err(), "iterate menu items")
}

// AddMenuItem inserts item into menu_items; used by the seed command.
func AddMenuItem(ctx context.Context, item models.MenuItem) error {
	if err := ValidateMenu([]models.MenuItem{item}); err != nil {
		return err
	}
	if item.Name == "" {
		return errors.New("name is required")
	}
	allergens := item.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO menu_items (
			id, name, description, price, category, cuisine, is_vegetarian,
			spice_level, preparation_time, rating, review_count, is_available,
			allergens, image
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			cuisine = EXCLUDED.cuisine,
			is_vegetarian = EXCLUDED.is_vegetarian,
			spice_level = EXCLUDED.spice_level,
			preparation_time = EXCLUDED.preparation_time,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			is_available = EXCLUDED.is_available,
			allergens = EXCLUDED.allergens,
			image = EXCLUDED.image`,
		item.ID, item.Name, item.Description, item.Price, item.Category, item.Cuisine,
		item.IsVegetarian, item.SpiceLevel, item.PreparationTime, item.Rating,
		item.ReviewCount, item.IsAvailable, allergens, item.Image,
	)
	return errors.Wrapf(err, "insert menu item %s", item.ID)
}
