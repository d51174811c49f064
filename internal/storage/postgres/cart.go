package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/luxora-commerce/internal/domain/cart"
)

const (
	getCartByShopperSQL = `SELECT id, shopper_id, items FROM carts WHERE shopper_id = $1`
	retireCartSQL       = `DELETE FROM carts WHERE id = $1`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// GetByShopper returns the shopper's pending cart.
func (s *CartStore) GetByShopper(ctx context.Context, shopperID string) (*cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
	)
	err := s.pool.QueryRow(ctx, getCartByShopperSQL, shopperID).Scan(&c.ID, &c.ShopperID, &itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for shopper %q: %w", shopperID, err)
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return &c, nil
}

// Retire deletes the cart. Retiring an already-retired cart reports
// cart.ErrNotFound, which callers treat as benign.
func (s *CartStore) Retire(ctx context.Context, cartID string) error {
	tag, err := s.pool.Exec(ctx, retireCartSQL, cartID)
	if err != nil {
		return fmt.Errorf("retiring cart %q: %w", cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}
