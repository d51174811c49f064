//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func placeCODOrder(t *testing.T, userID string, items ...cartItemRequest) createOrderResponse {
	t.Helper()

	req := createOrderRequest{
		UserID:        userID,
		CartItems:     items,
		AddressInfo:   validAddress(),
		PaymentMethod: "cod",
	}
	resp := doPost(t, "/api/shop/order/create", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[createOrderResponse](t, resp)
}

func TestCreateOrder_CashOnDelivery(t *testing.T) {
	created := placeCODOrder(t, "cod-shopper-1",
		cartItemRequest{ProductID: "p-leather-tote", Quantity: 1},
	)

	if !created.Success {
		t.Error("expected success=true")
	}
	if !uuidPattern.MatchString(created.OrderID) {
		t.Errorf("order id %q is not a uuid", created.OrderID)
	}
	if created.ApprovalURL != "" {
		t.Errorf("cod order should have no approval url, got %q", created.ApprovalURL)
	}

	resp := doGet(t, "/api/shop/order/details/"+created.OrderID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("details: expected 200, got %d", resp.StatusCode)
	}

	order := decodeData[orderResponse](t, resp)
	if order.OrderStatus != "processing" {
		t.Errorf("order status: got %q, want processing", order.OrderStatus)
	}
	if order.PaymentStatus != "pending" {
		t.Errorf("payment status: got %q, want pending", order.PaymentStatus)
	}
	// Sale price 199.00 applies, not the 249.00 list price.
	if order.TotalAmount != 199.00 {
		t.Errorf("total: got %v, want 199.00", order.TotalAmount)
	}
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	req := createOrderRequest{
		UserID:      "cod-shopper-2",
		AddressInfo: validAddress(),
	}
	resp := doPost(t, "/api/shop/order/create", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	req := createOrderRequest{
		UserID:        "cod-shopper-3",
		CartItems:     []cartItemRequest{{ProductID: "p-does-not-exist", Quantity: 1}},
		AddressInfo:   validAddress(),
		PaymentMethod: "cod",
	}
	resp := doPost(t, "/api/shop/order/create", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_MissingAddress(t *testing.T) {
	req := createOrderRequest{
		UserID:        "cod-shopper-4",
		CartItems:     []cartItemRequest{{ProductID: "p-leather-tote", Quantity: 1}},
		PaymentMethod: "cod",
	}
	resp := doPost(t, "/api/shop/order/create", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_StockClampIsFlagged(t *testing.T) {
	// The seed catalog has exactly 1 canvas sneaker in stock; ordering 2
	// succeeds, clamps stock at zero and flags the order for reconciliation.
	created := placeCODOrder(t, "cod-shopper-5",
		cartItemRequest{ProductID: "p-canvas-sneaker", Quantity: 2},
	)

	resp := doGet(t, "/api/shop/order/details/"+created.OrderID)
	defer resp.Body.Close()

	order := decodeData[orderResponse](t, resp)
	if order.ReconcileNote == "" {
		t.Error("expected a reconciliation note for the stock shortfall")
	}

	// Stock is exhausted, not negative: a follow-up order still succeeds and
	// is flagged too, since cash-on-delivery fulfilment never blocks on stock.
	second := placeCODOrder(t, "cod-shopper-5",
		cartItemRequest{ProductID: "p-canvas-sneaker", Quantity: 1},
	)

	resp2 := doGet(t, "/api/shop/order/details/"+second.OrderID)
	defer resp2.Body.Close()

	order2 := decodeData[orderResponse](t, resp2)
	if order2.ReconcileNote == "" {
		t.Error("expected a reconciliation note for the exhausted product")
	}
}

func TestListOrders_ByShopper(t *testing.T) {
	shopper := "list-shopper"
	first := placeCODOrder(t, shopper, cartItemRequest{ProductID: "p-silk-scarf", Quantity: 1})
	second := placeCODOrder(t, shopper, cartItemRequest{ProductID: "p-linen-shirt", Quantity: 1})

	resp := doGet(t, "/api/shop/order/list/"+shopper)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeData[[]orderResponse](t, resp)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	// Newest first.
	if orders[0].ID != second.OrderID || orders[1].ID != first.OrderID {
		t.Errorf("orders not newest-first: got [%s %s], want [%s %s]",
			orders[0].ID, orders[1].ID, second.OrderID, first.OrderID)
	}
}

func TestListOrders_UnknownShopperIsEmpty(t *testing.T) {
	resp := doGet(t, "/api/shop/order/list/nobody-here")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeData[[]orderResponse](t, resp)
	if len(orders) != 0 {
		t.Errorf("expected no orders, got %d", len(orders))
	}
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	resp := doGet(t, "/api/shop/order/details/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCapturePayment_MissingFields(t *testing.T) {
	resp := doPost(t, "/api/shop/order/capture", map[string]string{"orderId": "o1"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCapturePayment_UnknownOrder(t *testing.T) {
	resp := doPost(t, "/api/shop/order/capture", map[string]string{
		"paymentId": "PAY-1",
		"PayerID":   "PAYER-1",
		"orderId":   "00000000-0000-0000-0000-000000000000",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_RetiresSeededCart(t *testing.T) {
	// The seeder creates a demo cart for the integration shopper; the first
	// fulfilled order retires it.
	created := placeCODOrder(t, testShopper,
		cartItemRequest{ProductID: "p-wool-coat", Quantity: 1},
	)

	resp := doGet(t, fmt.Sprintf("/api/shop/order/details/%s", created.OrderID))
	defer resp.Body.Close()

	order := decodeData[orderResponse](t, resp)
	if order.OrderStatus != "processing" {
		t.Errorf("order status: got %q, want processing", order.OrderStatus)
	}
}
