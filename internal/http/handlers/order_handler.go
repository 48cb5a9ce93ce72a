package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

type addressRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// checkAddress validates every field and returns the first bad one.
func checkAddress(in addressRequest) (domain.Address, string, string) {
	var a domain.Address
	var ok bool
	if a.Name, ok = validate.Name(in.Name); !ok {
		return a, "name", "name must be 1-40 characters"
	}
	if a.Email, ok = validate.Email(in.Email); !ok {
		return a, "email", "invalid email"
	}
	if a.Phone, ok = validate.Phone(in.Phone); !ok {
		return a, "phone", "invalid phone number"
	}
	if a.Street, ok = validate.Text(in.Street, 120); !ok {
		return a, "street", "invalid street"
	}
	if a.City, ok = validate.Text(in.City, 60); !ok {
		return a, "city", "invalid city"
	}
	if a.PostalCode, ok = validate.PostalCode(in.PostalCode); !ok {
		return a, "postalCode", "invalid postal code"
	}
	return a, "", ""
}

// GET /api/v1/checkout/address
func (h *OrderHandler) Address(c *fiber.Ctx) error {
	a, err := h.Order.Address(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "checkout.address.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load your address")
	}
	return c.JSON(a)
}

// PUT /api/v1/checkout/address
func (h *OrderHandler) SaveAddress(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	a, field, msg := checkAddress(req)
	if field != "" {
		return badInput(c, field, msg)
	}
	if err := h.Order.SaveAddress(c.UserContext(), sid, a); err != nil {
		applog.Error(c, "checkout.address.save.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not save your address")
	}
	return c.JSON(a)
}

// POST /api/v1/orders
//
// The body may carry the address; otherwise the saved checkout address is
// used. Prices always come from the server side cart.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ctx := c.UserContext()

	var req addressRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badInput(c, "body", "invalid request body")
		}
	}
	if req == (addressRequest{}) {
		saved, err := h.Order.Address(ctx, sid)
		if err != nil {
			return err
		}
		req = addressRequest(saved)
	}
	addr, field, msg := checkAddress(req)
	if field != "" {
		return badInput(c, field, msg)
	}

	r, err := h.Order.Place(ctx, sid, addr)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return fail(c, fiber.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, services.ErrInsufficientStock):
		applog.Security(c, "order.place.fail", map[string]any{"reason": "stock"})
		return fail(c, fiber.StatusConflict, "Some items are no longer in stock. Please review quantities and try again.")
	case errors.Is(err, services.ErrPaymentDeclined):
		applog.Security(c, "order.place.fail", map[string]any{"reason": "payment"})
		return fail(c, fiber.StatusPaymentRequired, "Payment was declined")
	case err != nil:
		applog.Error(c, "order.place.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not place order")
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": r.OrderID,
		"total":    r.Totals.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(r)
}

// GET /api/v1/orders/:id
//
// Visible to the session that placed it, the user bound to that session
// and admins. Everyone else gets 404.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	o, items, err := h.Order.Get(c.UserContext(), oid)
	if errors.Is(err, services.ErrOrderNotFound) {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		return err
	}

	sid := c.Cookies(sidCookie)
	u := currentUser(c)
	owner := (sid != "" && sid == o.SessionID) || (u != nil && u.ID != "" && u.ID == o.UserID)
	if !owner && (u == nil || u.Role != domain.RoleAdmin) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	return c.JSON(fiber.Map{"order": o, "items": items})
}

// GET /api/v1/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History(c.UserContext(), c.Cookies(sidCookie), currentUser(c))
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}
