package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a shopper has no cart or the cart id is unknown.
var ErrNotFound = errors.New("cart not found")

// Item is a single product-quantity entry in a cart.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart holds a shopper's pending line items until checkout retires it.
type Cart struct {
	ID        string
	ShopperID string
	Items     []Item
}

// Store owns the shopper → cart mapping. Carts are retired (deleted) exactly
// once, by the order flow, when their originating order is fulfilled.
type Store interface {
	GetByShopper(ctx context.Context, shopperID string) (*Cart, error)
	Retire(ctx context.Context, cartID string) error
}
