// Package api exposes the storefront and admin HTTP surface.
//
// Handlers are thin: they decode the legacy JSON envelopes, delegate to the
// order service, and map domain errors to status codes. All business rules
// live in internal/domain.
package api

import (
	"net/http"

	"github.com/xenking/luxora-commerce/internal/domain/auth"
	"github.com/xenking/luxora-commerce/internal/domain/order"
)

// Handler serves the shop and admin order endpoints.
type Handler struct {
	orders  *order.Service
	apikeys auth.Repository
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(orders *order.Service, apikeys auth.Repository) *Handler {
	return &Handler{
		orders:  orders,
		apikeys: apikeys,
	}
}

// Routes returns the API route tree. Admin routes sit behind the API key
// check; shop routes are open (session handling is an upstream concern).
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /shop/order/create", h.createOrder)
	mux.HandleFunc("POST /shop/order/capture", h.capturePayment)
	mux.HandleFunc("GET /shop/order/list/{userId}", h.listOrdersByShopper)
	mux.HandleFunc("GET /shop/order/details/{id}", h.getOrderDetails)

	mux.Handle("GET /admin/orders/get", h.requireAPIKey(h.listAllOrders))
	mux.Handle("GET /admin/orders/details/{id}", h.requireAPIKey(h.getOrderDetailsAdmin))
	mux.Handle("PUT /admin/orders/update/{id}", h.requireAPIKey(h.updateOrderStatus))

	return mux
}
