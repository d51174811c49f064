package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/luxora-commerce/internal/domain/order"
	"github.com/xenking/luxora-commerce/internal/domain/payment"
)

// orderItemJSON is the wire form of an order line item.
type orderItemJSON struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// addressJSON is the wire form of the shipping address snapshot.
type addressJSON struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes,omitempty"`
}

// orderJSON is the wire form of an order record.
type orderJSON struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	CartID          string          `json:"cartId,omitempty"`
	CartItems       []orderItemJSON `json:"cartItems"`
	AddressInfo     addressJSON     `json:"addressInfo"`
	TotalAmount     float64         `json:"totalAmount"`
	OrderStatus     string          `json:"orderStatus"`
	PaymentStatus   string          `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentID       string          `json:"paymentId,omitempty"`
	PayerID         string          `json:"payerId,omitempty"`
	ReconcileNote   string          `json:"reconcileNote,omitempty"`
	OrderDate       time.Time       `json:"orderDate"`
	OrderUpdateDate time.Time       `json:"orderUpdateDate"`
}

func toOrderJSON(o *order.Order) orderJSON {
	items := make([]orderItemJSON, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemJSON{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			Price:     item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	return orderJSON{
		ID:        o.ID,
		UserID:    o.ShopperID,
		CartID:    o.CartID,
		CartItems: items,
		AddressInfo: addressJSON{
			Address: o.Address.AddressLine,
			City:    o.Address.City,
			Pincode: o.Address.Pincode,
			Phone:   o.Address.Phone,
			Notes:   o.Address.Notes,
		},
		TotalAmount:     o.Total.InexactFloat64(),
		OrderStatus:     string(o.OrderStatus),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		PaymentID:       o.PaymentRef,
		PayerID:         o.PayerRef,
		ReconcileNote:   o.ReconcileNote,
		OrderDate:       o.CreatedAt,
		OrderUpdateDate: o.UpdatedAt,
	}
}

func toOrderListJSON(orders []order.Order) []orderJSON {
	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = toOrderJSON(&orders[i])
	}
	return out
}

// envelope is the legacy {success, message, data} response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeError maps a domain error to its HTTP status and a safe message.
// Internals are logged, never exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missingErr  *order.MissingFieldError
		qtyErr      *order.InvalidQuantityError
		notFoundErr *order.ProductNotFoundError
		gwErr       *payment.GatewayError
	)

	switch {
	case errors.As(err, &missingErr),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrZeroTotal),
		errors.Is(err, order.ErrInvalidStatus):
		writeMessage(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &qtyErr):
		writeMessage(w, http.StatusUnprocessableEntity, qtyErr.Error())

	case errors.As(err, &notFoundErr):
		writeMessage(w, http.StatusUnprocessableEntity, notFoundErr.Error())

	case errors.Is(err, order.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Order cannot be found")

	case errors.Is(err, order.ErrAlreadyCaptured):
		// Duplicate captures are benign: nothing happened, the order is paid.
		writeMessage(w, http.StatusBadRequest, "This order has already been paid")

	case errors.As(err, &gwErr):
		zctx.From(r.Context()).Error("payment gateway failure", zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "Error while processing payment. Please try again")

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error. Please try again")
	}
}
