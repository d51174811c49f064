package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/luxora-commerce/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, shopper_id, cart_id, items, address, total,
		 order_status, payment_status, payment_method, payment_ref, payer_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	orderColumns = `id, shopper_id, cart_id, items, address, total,
		order_status, payment_status, payment_method, payment_ref, payer_ref,
		reconcile_note, created_at, updated_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByShopperSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE shopper_id = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	// The payment_status guard makes this a compare-and-swap: at most one
	// capture per order ever flips the row to paid.
	markOrderPaidSQL = `UPDATE orders
		SET payment_status = 'paid', order_status = 'confirmed',
		    payment_ref = $2, payer_ref = $3, updated_at = now()
		WHERE id = $1 AND payment_status <> 'paid'`

	markOrderPaymentFailedSQL = `UPDATE orders
		SET payment_status = 'failed', updated_at = now()
		WHERE id = $1 AND payment_status <> 'paid'`

	updateOrderStatusSQL = `UPDATE orders
		SET order_status = $2, updated_at = now() WHERE id = $1`

	flagOrderReconciliationSQL = `UPDATE orders
		SET reconcile_note = CASE WHEN reconcile_note = '' THEN $2
		                          ELSE reconcile_note || '; ' || $2 END,
		    updated_at = now()
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Line items and the address snapshot are
// serialized to JSON for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	var cartID *string
	if o.CartID != "" {
		cartID = &o.CartID
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.ShopperID, cartID, itemsJSON, addressJSON, o.Total,
		string(o.OrderStatus), string(o.PaymentStatus), o.PaymentMethod,
		o.PaymentRef, o.PayerRef,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByShopper returns the shopper's orders sorted by creation time
// descending. An unknown shopper yields an empty slice.
func (r *OrderRepository) ListByShopper(ctx context.Context, shopperID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByShopperSQL, shopperID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for shopper %q: %w", shopperID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// MarkPaid flips the order to paid/confirmed and stores the final payment
// references. The returned bool is false when another capture already won.
func (r *OrderRepository) MarkPaid(ctx context.Context, id, paymentRef, payerRef string) (bool, error) {
	tag, err := r.pool.Exec(ctx, markOrderPaidSQL, id, paymentRef, payerRef)
	if err != nil {
		return false, fmt.Errorf("marking order %q paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPaymentFailed records a failed capture attempt. Paid orders are never
// downgraded.
func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, markOrderPaymentFailedSQL, id)
	if err != nil {
		return fmt.Errorf("marking order %q payment failed: %w", id, err)
	}
	return nil
}

// UpdateStatus sets the order's fulfilment status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// FlagReconciliation appends a reconciliation note to the order.
func (r *OrderRepository) FlagReconciliation(ctx context.Context, id, note string) error {
	tag, err := r.pool.Exec(ctx, flagOrderReconciliationSQL, id, note)
	if err != nil {
		return fmt.Errorf("flagging order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		cartID      *string
		itemsJSON   []byte
		addressJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.ShopperID, &cartID, &itemsJSON, &addressJSON, &o.Total,
		&o.OrderStatus, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentRef,
		&o.PayerRef, &o.ReconcileNote, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if cartID != nil {
		o.CartID = *cartID
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order address: %w", err)
	}
	return o, nil
}
