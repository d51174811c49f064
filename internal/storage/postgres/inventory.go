package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/luxora-commerce/internal/domain/inventory"
)

const (
	// Single-statement clamped decrement. The CTE snapshots the prior value
	// under a row lock so concurrent decrements cannot interleave a
	// read-modify-write, and the caller learns how much was actually applied.
	decrementStockSQL = `WITH prior AS (
			SELECT total_stock FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products p
		SET total_stock = GREATEST(p.total_stock - $2, 0), updated_at = now()
		FROM prior
		WHERE p.id = $1
		RETURNING prior.total_stock, p.total_stock`

	restockSQL = `UPDATE products
		SET total_stock = total_stock + $2, updated_at = now()
		WHERE id = $1`
)

var _ inventory.Ledger = (*InventoryLedger)(nil)

// InventoryLedger implements inventory.Ledger on the products table's
// total_stock counter.
type InventoryLedger struct {
	pool *pgxpool.Pool
}

// NewInventoryLedger returns an InventoryLedger that uses the given pool.
func NewInventoryLedger(pool *pgxpool.Pool) *InventoryLedger {
	return &InventoryLedger{pool: pool}
}

// Decrement atomically reduces the product's stock, clamped at zero.
func (l *InventoryLedger) Decrement(ctx context.Context, productID string, quantity int) (inventory.Deduction, error) {
	if quantity <= 0 {
		return inventory.Deduction{}, inventory.ErrInvalidQuantity
	}

	var before, after int
	err := l.pool.QueryRow(ctx, decrementStockSQL, productID, quantity).Scan(&before, &after)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Deduction{}, inventory.ErrNotFound
		}
		return inventory.Deduction{}, fmt.Errorf("decrementing stock for product %q: %w", productID, err)
	}

	return inventory.Deduction{
		ProductID: productID,
		Requested: quantity,
		Applied:   before - after,
		Remaining: after,
	}, nil
}

// Restock adds quantity back to the product's counter.
func (l *InventoryLedger) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity < 0 {
		return inventory.ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil
	}

	tag, err := l.pool.Exec(ctx, restockSQL, productID, quantity)
	if err != nil {
		return fmt.Errorf("restocking product %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrNotFound
	}
	return nil
}
