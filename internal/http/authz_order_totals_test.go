package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/config"
)

// Order totals come from the server side cart; prices in the request body
// are ignored.
func TestOrderTotalsRecomputedServerSide(t *testing.T) {
	app, _, db := newTestApp(t, nil)
	cl := newClient(t, app).prime()

	resp, _ := cl.do("POST", "/api/v1/cart/items", map[string]any{"variantId": "tee-basic-s-black", "qty": 1})
	expectStatus(t, resp, http.StatusOK)

	body := map[string]any{"total": "1", "subtotal": "1", "unitPrice": "1"}
	for k, v := range testAddress {
		body[k] = v
	}
	resp, out := cl.do("POST", "/api/v1/orders", body)
	expectStatus(t, resp, http.StatusCreated)
	expectMoney(t, out, "totals", "subtotal", "99000")
	expectMoney(t, out, "totals", "shippingFee", "15000")
	expectMoney(t, out, "totals", "total", "114000")

	var stored string
	if err := db.Get(&stored, `SELECT total FROM orders WHERE id=?`, out["orderId"]); err != nil {
		t.Fatal(err)
	}
	if !decimal.RequireFromString(stored).Equal(decimal.NewFromInt(114000)) {
		t.Fatalf("stored total %s", stored)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	cl := newClient(t, app).prime()
	resp, _ := cl.do("POST", "/api/v1/orders", testAddress)
	expectStatus(t, resp, http.StatusBadRequest)
}

// The saved checkout address is used when the order body is empty.
func TestPlaceOrderUsesSavedAddress(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	cl := newClient(t, app).prime()

	resp, _ := cl.do("PUT", "/api/v1/checkout/address", testAddress)
	expectStatus(t, resp, http.StatusOK)
	resp, body := cl.do("GET", "/api/v1/checkout/address", nil)
	expectStatus(t, resp, http.StatusOK)
	if body["postalCode"] != "20742" {
		t.Fatalf("saved address not returned: %v", body)
	}

	cl.do("POST", "/api/v1/cart/items", map[string]any{"variantId": "hoodie-zip-m-grey", "qty": 1})
	resp, out := cl.do("POST", "/api/v1/orders", nil)
	expectStatus(t, resp, http.StatusCreated)

	resp, body = cl.do("GET", "/api/v1/orders/"+out["orderId"].(string), nil)
	expectStatus(t, resp, http.StatusOK)
	if o := body["order"].(map[string]any); o["city"] != "Springfield" {
		t.Fatalf("order address: %v", o)
	}
}

func TestPlaceOrderPaymentDeclined(t *testing.T) {
	app, _, db := newTestApp(t, func(s *setup) {
		s.cfg = config.Config{PaymentLimit: decimal.NewFromInt(100000)}
	})
	cl := newClient(t, app).prime()
	cl.do("POST", "/api/v1/cart/items", map[string]any{"variantId": "hoodie-zip-m-grey", "qty": 1})

	resp, _ := cl.do("POST", "/api/v1/orders", testAddress)
	expectStatus(t, resp, http.StatusPaymentRequired)

	// cart and stock untouched
	_, cart := cl.do("GET", "/api/v1/cart", nil)
	if lines, _ := cart["lines"].([]any); len(lines) != 1 {
		t.Fatalf("cart changed after decline: %v", cart["lines"])
	}
	var qty int
	if err := db.Get(&qty, `SELECT qty FROM variants WHERE id='hoodie-zip-m-grey'`); err != nil {
		t.Fatal(err)
	}
	if qty != 4 {
		t.Fatalf("stock changed after decline: %d", qty)
	}
}

// Orders are visible to the placing session, its user and admins only.
func TestOrderVisibility(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	owner := newClient(t, app).prime()
	orderID := placeOrder(t, owner, "tee-basic-m-white", 1)

	other := newClient(t, app).prime()
	resp, _ := other.do("GET", "/api/v1/orders/"+orderID, nil)
	expectStatus(t, resp, http.StatusNotFound)

	bob := newClient(t, app).prime().login("bob@storefront.test")
	resp, _ = bob.do("GET", "/api/v1/orders/"+orderID, nil)
	expectStatus(t, resp, http.StatusNotFound)

	admin := newClient(t, app).prime().login("admin@storefront.test")
	resp, _ = admin.do("GET", "/api/v1/orders/"+orderID, nil)
	expectStatus(t, resp, http.StatusOK)

	resp, _ = owner.do("GET", "/api/v1/orders/"+orderID, nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestOrderHistoryRequiresLogin(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	cl := newClient(t, app).prime()

	resp, _ := cl.do("GET", "/api/v1/orders", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	cl.login("alice@storefront.test")
	orderID := placeOrder(t, cl, "tee-basic-s-white", 2)

	resp, body := cl.do("GET", "/api/v1/orders", nil)
	expectStatus(t, resp, http.StatusOK)
	orders, _ := body["orders"].([]any)
	if len(orders) != 1 || orders[0].(map[string]any)["id"] != orderID {
		t.Fatalf("history: %v", body["orders"])
	}
}
