package api

import (
	"encoding/json"
	"net/http"

	"github.com/xenking/luxora-commerce/internal/domain/cart"
	"github.com/xenking/luxora-commerce/internal/domain/order"
)

// createOrderRequest is the checkout intent body. Prices are intentionally
// absent: the server snapshots unit prices from the catalog, the client never
// dictates amounts.
type createOrderRequest struct {
	UserID        string         `json:"userId"`
	CartItems     []cartItemJSON `json:"cartItems"`
	AddressInfo   addressJSON    `json:"addressInfo"`
	PaymentMethod string         `json:"paymentMethod"`
}

type cartItemJSON struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// createOrderResponse carries the handoff for external payment methods.
type createOrderResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	ApprovalURL string `json:"approvalURL,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]cart.Item, len(req.CartItems))
	for i, it := range req.CartItems {
		items[i] = cart.Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := h.orders.Create(r.Context(), order.CreateRequest{
		ShopperID: req.UserID,
		Items:     items,
		Address: order.Address{
			AddressLine: req.AddressInfo.Address,
			City:        req.AddressInfo.City,
			Pincode:     req.AddressInfo.Pincode,
			Phone:       req.AddressInfo.Phone,
			Notes:       req.AddressInfo.Notes,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success:     true,
		OrderID:     result.OrderID,
		ApprovalURL: result.ApprovalURL,
	})
}

// capturePaymentRequest mirrors the provider redirect parameters. PayerID
// keeps the provider's capitalisation.
type capturePaymentRequest struct {
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"PayerID"`
	OrderID   string `json:"orderId"`
}

func (h *Handler) capturePayment(w http.ResponseWriter, r *http.Request) {
	var req capturePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaymentID == "" || req.PayerID == "" || req.OrderID == "" {
		writeMessage(w, http.StatusBadRequest, "Missing paymentId, PayerID, or orderId for payment capture")
		return
	}

	o, err := h.orders.Capture(r.Context(), req.OrderID, req.PaymentID, req.PayerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Payment successful and order confirmed",
		Data:    toOrderJSON(o),
	})
}

func (h *Handler) listOrdersByShopper(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	orders, err := h.orders.ListForShopper(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toOrderListJSON(orders))
}

func (h *Handler) getOrderDetails(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toOrderJSON(o))
}
