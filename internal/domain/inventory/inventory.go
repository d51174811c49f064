// Package inventory defines the stock ledger consumed by the order flow.
//
// The ledger keeps one non-negative counter per product. Decrements clamp at
// zero rather than failing: once payment has cleared, an order is never
// blocked on stock accuracy. A clamped deduction is reported back so the
// caller can flag the shortfall for reconciliation.
package inventory

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when the product has no stock counter.
	ErrNotFound = errors.New("inventory: product not found")
	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = errors.New("inventory: quantity must be greater than zero")
)

// Deduction reports the outcome of a single stock decrement.
type Deduction struct {
	ProductID string
	Requested int
	Applied   int
	Remaining int
}

// Clamped reports whether the decrement hit the zero floor, i.e. the requested
// quantity exceeded the available stock.
func (d Deduction) Clamped() bool {
	return d.Applied < d.Requested
}

// Ledger owns per-product available-stock counters.
type Ledger interface {
	// Decrement atomically reduces the product's stock by quantity, clamped
	// at zero. The returned Deduction tells the caller how much was actually
	// applied.
	Decrement(ctx context.Context, productID string, quantity int) (Deduction, error)

	// Restock adds quantity back to the product's counter. Used as the
	// compensating action when a multi-item deduction has to be unwound.
	Restock(ctx context.Context, productID string, quantity int) error
}
