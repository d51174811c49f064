package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/luxora-commerce/internal/domain/cart"
	"github.com/xenking/luxora-commerce/internal/domain/inventory"
	"github.com/xenking/luxora-commerce/internal/domain/payment"
	"github.com/xenking/luxora-commerce/internal/domain/product"
)

// Payment methods accepted at checkout.
const (
	MethodPayPal         = "paypal"
	MethodCashOnDelivery = "cod"
)

// requiresHandoff reports whether the method needs an external approval step
// before the order can be fulfilled.
func requiresHandoff(method string) bool {
	return method == MethodPayPal
}

// CreateRequest holds the checkout intent submitted by a shopper.
type CreateRequest struct {
	ShopperID     string
	Items         []cart.Item
	Address       Address
	PaymentMethod string
}

// CreateResult is the outcome of a successful create. ApprovalURL is empty for
// payment methods that need no external handoff.
type CreateResult struct {
	OrderID     string
	ApprovalURL string
}

// Service is the order orchestrator: the sole writer of order status
// transitions and the only component allowed to mutate stock and carts as a
// consequence of those transitions.
type Service struct {
	orders  Repository
	catalog product.Repository
	ledger  inventory.Ledger
	carts   cart.Store
	gateway payment.Gateway

	currency string
}

// NewService creates the orchestrator with its collaborator ports.
func NewService(
	orders Repository,
	catalog product.Repository,
	ledger inventory.Ledger,
	carts cart.Store,
	gateway payment.Gateway,
	currency string,
) *Service {
	return &Service{
		orders:   orders,
		catalog:  catalog,
		ledger:   ledger,
		carts:    carts,
		gateway:  gateway,
		currency: currency,
	}
}

// Create validates the checkout intent, snapshots prices, and persists the
// order. For handoff methods the external payment is created first and the
// order is persisted only after the provider accepts, so an adapter failure
// leaves no order row behind. For direct methods the order is fulfilled
// immediately; any partial stock deduction is compensated and the order is
// marked rejected.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.ShopperID == "" {
		return nil, &MissingFieldError{Field: "userId"}
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if err := validateAddress(req.Address); err != nil {
		return nil, err
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Freeze display fields and unit prices. The snapshot is what the shopper
	// saw at checkout; later catalog edits must not change it.
	items := make([]Item, len(req.Items))
	total := decimal.Zero
	for i, reqItem := range req.Items {
		p, ok := byID[reqItem.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: reqItem.ProductID}
		}
		unit := p.EffectivePrice()
		items[i] = Item{
			ProductID: p.ID,
			Title:     p.Title,
			Image:     p.Image,
			UnitPrice: unit,
			Quantity:  reqItem.Quantity,
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(reqItem.Quantity))))
	}
	total = total.Round(2)
	if !total.IsPositive() {
		return nil, ErrZeroTotal
	}

	// Remember the originating cart so it can be retired once, on fulfilment.
	cartID := ""
	if c, err := s.carts.GetByShopper(ctx, req.ShopperID); err == nil {
		cartID = c.ID
	} else if !errors.Is(err, cart.ErrNotFound) {
		return nil, errors.Wrap(err, "get cart")
	}

	o := &Order{
		ID:            uuid.New().String(),
		ShopperID:     req.ShopperID,
		CartID:        cartID,
		Items:         items,
		Address:       req.Address,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
	}

	if requiresHandoff(req.PaymentMethod) {
		return s.createWithHandoff(ctx, o)
	}
	return s.createDirect(ctx, o)
}

// createWithHandoff sets up the external payment first, then persists the
// order in pending_payment carrying the provider's payment reference.
func (s *Service) createWithHandoff(ctx context.Context, o *Order) (*CreateResult, error) {
	gwItems := make([]payment.LineItem, len(o.Items))
	for i, item := range o.Items {
		gwItems[i] = payment.LineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	handoff, err := s.gateway.Create(ctx, payment.CreateRequest{
		Items:    gwItems,
		Total:    o.Total,
		Currency: s.currency,
	})
	if err != nil {
		// No order row exists yet; the whole create aborts cleanly.
		return nil, errors.Wrap(err, "create external payment")
	}

	o.OrderStatus = StatusPendingPayment
	o.PaymentStatus = PaymentPending
	o.PaymentRef = handoff.PaymentRef

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &CreateResult{OrderID: o.ID, ApprovalURL: handoff.ApprovalURL}, nil
}

// createDirect persists the order and fulfils it in one logical step. There is
// no capture later, so stock deduction and cart retirement happen now; a
// failure mid-way restocks whatever was applied and rejects the order.
func (s *Service) createDirect(ctx context.Context, o *Order) (*CreateResult, error) {
	o.OrderStatus = StatusProcessing
	o.PaymentStatus = PaymentPending

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.fulfill(ctx, o); err != nil {
		if stErr := s.orders.UpdateStatus(ctx, o.ID, StatusRejected); stErr != nil {
			zctx.From(ctx).Error("reject order after failed fulfilment",
				zap.String("order_id", o.ID), zap.Error(stErr))
		}
		return nil, errors.Wrap(err, "fulfil order")
	}

	return &CreateResult{OrderID: o.ID}, nil
}

// fulfill deducts stock for every line item and retires the originating cart.
// Any error unwinds the deductions already applied via compensating restocks.
func (s *Service) fulfill(ctx context.Context, o *Order) error {
	lg := zctx.From(ctx)

	applied := make([]inventory.Deduction, 0, len(o.Items))
	undo := func() {
		for _, d := range applied {
			if err := s.ledger.Restock(ctx, d.ProductID, d.Applied); err != nil {
				lg.Error("restock compensation failed",
					zap.String("order_id", o.ID),
					zap.String("product_id", d.ProductID),
					zap.Int("quantity", d.Applied),
					zap.Error(err))
			}
		}
	}

	var shortfalls []string
	for _, item := range o.Items {
		d, err := s.ledger.Decrement(ctx, item.ProductID, item.Quantity)
		if err != nil {
			undo()
			return errors.Wrapf(err, "decrement stock for product %s", item.ProductID)
		}
		applied = append(applied, d)
		if d.Clamped() {
			lg.Warn("insufficient stock, clamped at zero",
				zap.String("order_id", o.ID),
				zap.String("product_id", d.ProductID),
				zap.Int("requested", d.Requested),
				zap.Int("applied", d.Applied))
			shortfalls = append(shortfalls, fmt.Sprintf("%s short by %d", d.ProductID, d.Requested-d.Applied))
		}
	}

	if o.CartID != "" {
		if err := s.carts.Retire(ctx, o.CartID); err != nil && !errors.Is(err, cart.ErrNotFound) {
			undo()
			return errors.Wrap(err, "retire cart")
		}
	}

	if len(shortfalls) > 0 {
		note := "insufficient stock: " + strings.Join(shortfalls, "; ")
		if err := s.orders.FlagReconciliation(ctx, o.ID, note); err != nil {
			lg.Error("flag reconciliation", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return nil
}

// Capture finalizes the external payment for an order and, for the single
// winning call, applies the post-payment side effects. Once the order is
// marked paid that status is authoritative: failures in stock deduction or
// cart retirement are recorded as a reconciliation note, never by reverting
// the payment.
func (s *Service) Capture(ctx context.Context, orderID, paymentRef, payerRef string) (*Order, error) {
	lg := zctx.From(ctx)

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == PaymentPaid {
		return nil, ErrAlreadyCaptured
	}

	receipt, err := s.gateway.Execute(ctx, payment.ExecuteRequest{
		PaymentRef: paymentRef,
		PayerRef:   payerRef,
		Total:      o.Total,
		Currency:   s.currency,
	})
	if err != nil {
		// The order stays in pending_payment so the shopper can retry.
		if mErr := s.orders.MarkPaymentFailed(ctx, orderID); mErr != nil {
			lg.Error("mark payment failed", zap.String("order_id", orderID), zap.Error(mErr))
		}
		return nil, err
	}

	won, err := s.orders.MarkPaid(ctx, orderID, receipt.PaymentRef, receipt.PayerRef)
	if err != nil {
		return nil, errors.Wrap(err, "mark order paid")
	}
	if !won {
		// A concurrent capture got there first; it owns the side effects.
		return nil, ErrAlreadyCaptured
	}

	s.applyPostPayment(ctx, o)

	final, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "reload order")
	}
	return final, nil
}

// applyPostPayment deducts stock and retires the cart after a successful
// capture. Failures here are recorded against the order for reconciliation;
// the money has moved, so nothing is rolled back.
func (s *Service) applyPostPayment(ctx context.Context, o *Order) {
	lg := zctx.From(ctx)

	var notes []string
	for _, item := range o.Items {
		d, err := s.ledger.Decrement(ctx, item.ProductID, item.Quantity)
		if err != nil {
			lg.Error("stock deduction failed after capture",
				zap.String("order_id", o.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			notes = append(notes, fmt.Sprintf("deduct %s failed: %v", item.ProductID, err))
			continue
		}
		if d.Clamped() {
			lg.Warn("insufficient stock, clamped at zero",
				zap.String("order_id", o.ID),
				zap.String("product_id", d.ProductID),
				zap.Int("requested", d.Requested),
				zap.Int("applied", d.Applied))
			notes = append(notes, fmt.Sprintf("%s short by %d", d.ProductID, d.Requested-d.Applied))
		}
	}

	if o.CartID != "" {
		if err := s.carts.Retire(ctx, o.CartID); err != nil && !errors.Is(err, cart.ErrNotFound) {
			lg.Error("cart retirement failed after capture",
				zap.String("order_id", o.ID),
				zap.String("cart_id", o.CartID),
				zap.Error(err))
			notes = append(notes, fmt.Sprintf("retire cart %s failed: %v", o.CartID, err))
		}
	}

	if len(notes) > 0 {
		if err := s.orders.FlagReconciliation(ctx, o.ID, strings.Join(notes, "; ")); err != nil {
			lg.Error("flag reconciliation", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

// ListForShopper returns the shopper's orders newest first. An unknown shopper
// yields an empty slice, not an error.
func (s *Service) ListForShopper(ctx context.Context, shopperID string) ([]Order, error) {
	if shopperID == "" {
		return nil, &MissingFieldError{Field: "userId"}
	}
	return s.orders.ListByShopper(ctx, shopperID)
}

// ListAll returns every order for the admin surface.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// GetDetails loads an order and overlays current catalog display fields onto
// its line items for presentation. Resolution failures fall back to the stored
// snapshot and never fail the lookup.
func (s *Service) GetDetails(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}

	current, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		zctx.From(ctx).Warn("resolve order products, serving snapshots",
			zap.String("order_id", o.ID), zap.Error(err))
		return o, nil
	}

	byID := make(map[string]product.Product, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}
	for i := range o.Items {
		p, ok := byID[o.Items[i].ProductID]
		if !ok {
			continue // product gone from catalog, snapshot stands
		}
		o.Items[i].Title = p.Title
		o.Items[i].Image = p.Image
		o.Items[i].UnitPrice = p.EffectivePrice()
	}
	return o, nil
}

// UpdateStatus sets an order's fulfilment status from the admin surface.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

func validateAddress(a Address) error {
	switch {
	case a.AddressLine == "":
		return &MissingFieldError{Field: "address"}
	case a.City == "":
		return &MissingFieldError{Field: "city"}
	case a.Pincode == "":
		return &MissingFieldError{Field: "pincode"}
	case a.Phone == "":
		return &MissingFieldError{Field: "phone"}
	}
	return nil
}
