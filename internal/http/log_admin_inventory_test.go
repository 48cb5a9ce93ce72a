package handlers_test

import (
	"net/http"
	"testing"
)

func TestAdminInventoryUpdateLogs(t *testing.T) {
	app, _, db := newTestApp(t, nil)
	admin := newClient(t, app).prime().login("admin@storefront.test")

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp, _ = admin.do("PUT", "/api/v1/admin/variants/tee-basic-l-black/stock", map[string]int{"qty": 4})
	})
	expectStatus(t, resp, http.StatusOK)
	e, ok := findLog(entries, "admin.inventory.save")
	if !ok {
		t.Fatal("expected admin.inventory.save audit log")
	}
	if e.Level != "audit" || e.Fields["variant"] != "tee-basic-l-black" || e.Fields["qty"] != float64(4) {
		t.Fatalf("unexpected audit entry %+v", e)
	}

	var qty int
	if err := db.Get(&qty, `SELECT qty FROM variants WHERE id='tee-basic-l-black'`); err != nil {
		t.Fatal(err)
	}
	if qty != 4 {
		t.Fatalf("stock not saved: %d", qty)
	}

	// restocked variant can now be added to a cart
	shopper := newClient(t, app).prime()
	resp, _ = shopper.do("POST", "/api/v1/cart/items", map[string]any{"variantId": "tee-basic-l-black", "qty": 1})
	expectStatus(t, resp, http.StatusOK)
	resp, body := shopper.do("GET", "/api/v1/availability?variantId=tee-basic-l-black", nil)
	expectStatus(t, resp, http.StatusOK)
	if body["status"] != "LOW_STOCK" {
		t.Fatalf("expected LOW_STOCK, got %v", body)
	}
}

func TestAdminInventoryRejectsBadInput(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	admin := newClient(t, app).prime().login("admin@storefront.test")

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp, _ = admin.do("PUT", "/api/v1/admin/variants/tee-basic-s-black/stock", map[string]int{"qty": -1})
	})
	expectStatus(t, resp, http.StatusBadRequest)
	if _, ok := findLog(entries, "validation.fail"); !ok {
		t.Fatal("expected validation.fail log")
	}
	if _, ok := findLog(entries, "admin.inventory.save"); ok {
		t.Fatal("rejected update was audited")
	}

	resp, _ = admin.do("PUT", "/api/v1/admin/variants/ghost/stock", map[string]int{"qty": 1})
	expectStatus(t, resp, http.StatusNotFound)
}
