package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the fulfilment lifecycle of an order.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusConfirmed      Status = "confirmed"
	StatusDelivered      Status = "delivered"
	StatusRejected       Status = "rejected"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusConfirmed, StatusDelivered, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus enumerates the payment lifecycle of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Sentinel errors for order lookup and lifecycle violations.
var (
	ErrNotFound        = errors.New("order not found")
	ErrAlreadyCaptured = errors.New("order has already been paid")
	ErrEmptyItems      = errors.New("items required")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrZeroTotal       = errors.New("order total must be greater than zero")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// MissingFieldError indicates a required request field was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Item is an order line with the product display fields and unit price frozen
// at creation time. Snapshots are immutable: later catalog changes never alter
// historical orders.
type Item struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Address is the shipping address snapshot stored with the order.
type Address struct {
	AddressLine string `json:"address"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes,omitempty"`
}

// Order is the durable record of a checkout, the source of truth for the
// whole payment and fulfilment flow.
type Order struct {
	ID            string
	ShopperID     string
	CartID        string
	Items         []Item
	Address       Address
	Total         decimal.Decimal
	OrderStatus   Status
	PaymentStatus PaymentStatus
	PaymentMethod string
	PaymentRef    string
	PayerRef      string
	ReconcileNote string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository defines persistence operations for orders. Status transitions go
// through the dedicated mark/update methods so the paid flip stays a single
// compare-and-swap.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByShopper(ctx context.Context, shopperID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)

	// MarkPaid atomically flips the order to paid/confirmed and stores the
	// final payment references. It succeeds for at most one caller per order:
	// the returned bool is false when the order was already paid, which is how
	// concurrent captures are serialized.
	MarkPaid(ctx context.Context, id, paymentRef, payerRef string) (bool, error)

	// MarkPaymentFailed records a failed capture attempt. It never downgrades
	// an order that has already been paid.
	MarkPaymentFailed(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id string, status Status) error

	// FlagReconciliation records a note against the order when a post-payment
	// side effect (stock deduction, cart retirement) needs manual attention.
	FlagReconciliation(ctx context.Context, id, note string) error
}
