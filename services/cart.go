package services

import (
	"context"
	"encoding/json"

	"campus-canteen/db"
	"campus-canteen/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// CartItem and Cart are the stored form of a session cart.
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Qty      int    `json:"qty"`
	Category string `json:"category"`
}

type Cart struct {
	Items      []CartItem `json:"items"`
	ItemsTotal int64      `json:"items_total"`
	Favorites  []string   `json:"favorites"`
}

func CartFromSnapshot(snap Snapshot) *Cart {
	cart := &Cart{
		Items:     make([]CartItem, 0, len(snap.Lines)),
		Favorites: append([]string{}, snap.Favorites...),
	}
	for _, l := range snap.Lines {
		cart.Items = append(cart.Items, CartItem{
			ID:       l.ItemID,
			Name:     l.Name,
			Price:    l.Price,
			Qty:      l.Quantity,
			Category: l.Category,
		})
		cart.ItemsTotal += l.Subtotal()
	}
	return cart
}

func (c *Cart) Snapshot() Snapshot {
	snap := Snapshot{
		Lines:     make([]models.CartLine, 0, len(c.Items)),
		Favorites: append([]string{}, c.Favorites...),
	}
	for _, it := range c.Items {
		snap.Lines = append(snap.Lines, models.CartLine{
			ItemID:   it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Category: it.Category,
			Quantity: it.Qty,
		})
	}
	return snap
}

// CartRepository persists session carts between restarts.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type PostgresCartRepository struct{}

func NewPostgresCartRepository() *PostgresCartRepository {
	return &PostgresCartRepository{}
}

// Load returns the stored cart, or an empty cart when none exists.
func (r *PostgresCartRepository) Load(ctx context.Context, sessionID string) (*Cart, error) {
	var itemsJSON, favoritesJSON []byte
	var itemsTotal int64
	err := db.Pool.QueryRow(ctx, `
		SELECT items, items_total, favorites FROM carts WHERE session_id = $1`,
		sessionID,
	).Scan(&itemsJSON, &itemsTotal, &favoritesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Cart{Items: []CartItem{}, Favorites: []string{}}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load cart %s", sessionID)
	}

	cart := &Cart{ItemsTotal: itemsTotal}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal cart items")
		}
	}
	if len(favoritesJSON) > 0 {
		if err := json.Unmarshal(favoritesJSON, &cart.Favorites); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal favorites")
		}
	}
	return cart, nil
}

func (r *PostgresCartRepository) Save(ctx context.Context, sessionID string, cart *Cart) error {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cart items")
	}
	favoritesJSON, err := json.Marshal(cart.Favorites)
	if err != nil {
		return errors.Wrap(err, "failed to marshal favorites")
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO carts (session_id, items, items_total, favorites, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (session_id) DO UPDATE SET
			items = $2,
			items_total = $3,
			favorites = $4,
			updated_at = now()`,
		sessionID, itemsJSON, cart.ItemsTotal, favoritesJSON,
	)
	return errors.Wrapf(err, "save cart %s", sessionID)
}

func (r *PostgresCartRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID)
	return errors.Wrapf(err, "delete cart %s", sessionID)
}
