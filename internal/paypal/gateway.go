// Package paypal adapts the PayPal Orders API to the payment.Gateway port.
//
// The adapter is stateless apart from the SDK client's token cache: it never
// persists anything, and every provider failure is flattened into a
// payment.GatewayError so callers stay ignorant of PayPal error shapes.
package paypal

import (
	"context"
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	pp "github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/xenking/luxora-commerce/internal/domain/payment"
)

// Config holds the PayPal application credentials and redirect endpoints.
type Config struct {
	ClientID  string
	Secret    string
	Live      bool
	BrandName string
	ReturnURL string
	CancelURL string
}

// Gateway implements payment.Gateway against the PayPal Orders API.
type Gateway struct {
	client *pp.Client
	cfg    Config

	authOnce sync.Once
	authErr  error
}

var _ payment.Gateway = (*Gateway)(nil)

// New constructs a Gateway. Credentials are verified lazily on first use.
func New(cfg Config) (*Gateway, error) {
	base := pp.APIBaseSandBox
	if cfg.Live {
		base = pp.APIBaseLive
	}
	client, err := pp.NewClient(cfg.ClientID, cfg.Secret, base)
	if err != nil {
		return nil, errors.Wrap(err, "create paypal client")
	}
	return &Gateway{client: client, cfg: cfg}, nil
}

// auth fetches the initial access token once; the SDK refreshes it afterwards.
func (g *Gateway) auth(ctx context.Context) error {
	g.authOnce.Do(func() {
		if _, err := g.client.GetAccessToken(ctx); err != nil {
			g.authErr = err
		}
	})
	if g.authErr != nil {
		return &payment.GatewayError{Message: "authentication failed", Cause: g.authErr}
	}
	return nil
}

// Create sets up a PayPal order for the given line items and returns the
// approve link as the handoff the shopper must follow.
func (g *Gateway) Create(ctx context.Context, req payment.CreateRequest) (*payment.Handoff, error) {
	if err := g.auth(ctx); err != nil {
		return nil, err
	}

	items := make([]pp.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = pp.Item{
			Name: it.Title,
			SKU:  it.ProductID,
			UnitAmount: &pp.Money{
				Currency: req.Currency,
				Value:    FormatAmount(it.UnitPrice),
			},
			Quantity: FormatQuantity(it.Quantity),
		}
	}

	unit := pp.PurchaseUnitRequest{
		Amount: &pp.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    FormatAmount(req.Total),
			Breakdown: &pp.PurchaseUnitAmountBreakdown{
				ItemTotal: &pp.Money{
					Currency: req.Currency,
					Value:    FormatAmount(req.Total),
				},
			},
		},
		Items: items,
	}

	appCtx := &pp.ApplicationContext{
		BrandName: g.cfg.BrandName,
		ReturnURL: g.cfg.ReturnURL,
		CancelURL: g.cfg.CancelURL,
	}

	order, err := g.client.CreateOrder(ctx, pp.OrderIntentCapture, []pp.PurchaseUnitRequest{unit}, nil, appCtx)
	if err != nil {
		return nil, wrapProviderError(err, "create payment")
	}

	approval := approveLink(order.Links)
	if approval == "" {
		return nil, &payment.GatewayError{Message: "provider returned no approval link"}
	}

	return &payment.Handoff{PaymentRef: order.ID, ApprovalURL: approval}, nil
}

// Execute captures a previously approved PayPal order.
func (g *Gateway) Execute(ctx context.Context, req payment.ExecuteRequest) (*payment.Receipt, error) {
	if err := g.auth(ctx); err != nil {
		return nil, err
	}

	capture, err := g.client.CaptureOrder(ctx, req.PaymentRef, pp.CaptureOrderRequest{})
	if err != nil {
		return nil, wrapProviderError(err, "capture payment")
	}
	if capture.Status != "COMPLETED" {
		return nil, &payment.GatewayError{
			Message: "capture not completed, provider status " + capture.Status,
		}
	}

	payerRef := req.PayerRef
	if capture.Payer != nil && capture.Payer.PayerID != "" {
		payerRef = capture.Payer.PayerID
	}

	return &payment.Receipt{PaymentRef: capture.ID, PayerRef: payerRef}, nil
}

// approveLink finds the HATEOAS link the shopper must visit to approve the
// payment.
func approveLink(links []pp.Link) string {
	for _, l := range links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

// wrapProviderError extracts a readable message from the SDK error. PayPal API
// failures arrive as *pp.ErrorResponse; everything else (network, decode) is
// reported generically.
func wrapProviderError(err error, op string) error {
	var perr *pp.ErrorResponse
	if errors.As(err, &perr) {
		msg := perr.Message
		if msg == "" {
			msg = perr.Name
		}
		return &payment.GatewayError{Message: op + ": " + msg, Cause: err}
	}
	return &payment.GatewayError{Message: op + " failed", Cause: err}
}

// FormatAmount renders a decimal with the two-fraction-digit currency
// semantics PayPal expects.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatQuantity renders a line item quantity for the provider API.
func FormatQuantity(q int) string {
	return strconv.Itoa(q)
}
