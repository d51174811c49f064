// Package payment defines the gateway port the order flow uses to talk to an
// external payment provider. Adapters are pure translation layers: they never
// persist state and they flatten provider-specific failures into GatewayError.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is the snapshot of a single order line sent to the provider.
type LineItem struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CreateRequest asks the provider to set up a payment for later approval.
type CreateRequest struct {
	Items    []LineItem
	Total    decimal.Decimal
	Currency string
}

// Handoff is the provider's answer to a create call: an external payment
// reference and the approval URL the shopper must visit to authorize it.
type Handoff struct {
	PaymentRef  string
	ApprovalURL string
}

// ExecuteRequest finalizes a previously approved payment.
type ExecuteRequest struct {
	PaymentRef string
	PayerRef   string
	Total      decimal.Decimal
	Currency   string
}

// Receipt is the provider's confirmation of a captured payment.
type Receipt struct {
	PaymentRef string
	PayerRef   string
}

// Gateway wraps the provider's create and execute operations.
type Gateway interface {
	Create(ctx context.Context, req CreateRequest) (*Handoff, error)
	Execute(ctx context.Context, req ExecuteRequest) (*Receipt, error)
}

// GatewayError wraps any provider failure with a human-readable message.
// Callers branch on the type, never on provider-specific error shapes.
type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return "payment gateway: " + e.Message + ": " + e.Cause.Error()
	}
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}
