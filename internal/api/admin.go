package api

import (
	"encoding/json"
	"net/http"

	"github.com/xenking/luxora-commerce/internal/domain/order"
)

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toOrderListJSON(orders))
}

func (h *Handler) getOrderDetailsAdmin(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toOrderJSON(o))
}

type updateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), order.Status(req.OrderStatus))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Order status updated successfully",
		Data:    toOrderJSON(o),
	})
}
