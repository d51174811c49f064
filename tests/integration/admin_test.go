//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestAdminOrders_RequiresAPIKey(t *testing.T) {
	resp := doGet(t, "/api/admin/orders/get")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminOrders_RejectsWrongKey(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/admin/orders/get", nil, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminOrders_List(t *testing.T) {
	placeCODOrder(t, "admin-list-shopper", cartItemRequest{ProductID: "p-silk-scarf", Quantity: 1})

	resp := doRequest(t, http.MethodGet, "/api/admin/orders/get", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeData[[]orderResponse](t, resp)
	if len(orders) == 0 {
		t.Error("expected at least one order in the admin list")
	}
}

func TestAdminOrders_UpdateStatus(t *testing.T) {
	created := placeCODOrder(t, "admin-update-shopper", cartItemRequest{ProductID: "p-silk-scarf", Quantity: 1})

	body := map[string]string{"orderStatus": "delivered"}
	resp := doRequest(t, http.MethodPut, "/api/admin/orders/update/"+created.OrderID, body, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeData[orderResponse](t, resp)
	if order.OrderStatus != "delivered" {
		t.Errorf("order status: got %q, want delivered", order.OrderStatus)
	}
}

func TestAdminOrders_UpdateStatusInvalid(t *testing.T) {
	created := placeCODOrder(t, "admin-invalid-shopper", cartItemRequest{ProductID: "p-silk-scarf", Quantity: 1})

	body := map[string]string{"orderStatus": "teleported"}
	resp := doRequest(t, http.MethodPut, "/api/admin/orders/update/"+created.OrderID, body, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
