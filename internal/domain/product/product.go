package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Description string
	Category    string
	Brand       string
	Image       string
	Price       decimal.Decimal
	SalePrice   decimal.Decimal
	TotalStock  int
}

// EffectivePrice returns the unit price a shopper actually pays: the lesser of
// the list price and the sale price when a positive sale price is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price) {
		return p.SalePrice
	}
	return p.Price
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
