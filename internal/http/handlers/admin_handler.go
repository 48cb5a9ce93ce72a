package handlers

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AdminHandler struct {
	Orders    *services.OrderService
	Inventory *services.InventoryService
	Coupons   *services.CouponService
	Auth      *services.AuthService
	Users     *repos.UserRepo
}

// GET /api/v1/admin/orders
func (h *AdminHandler) OrderList(c *fiber.Ctx) error {
	ords, err := h.Orders.Latest(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	return c.JSON(fiber.Map{"orders": ords})
}

type statusRequest struct {
	Status string `json:"status"`
}

// POST /api/v1/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badInput(c, "id", "missing id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	status, ok := validate.Status(req.Status)
	if !ok {
		return badInput(c, "status", "unknown status")
	}
	err := h.Orders.UpdateStatus(c.UserContext(), id, status)
	if errors.Is(err, services.ErrOrderNotFound) {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return fail(c, fiber.StatusBadRequest, "could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"id": id, "status": status})
}

// GET /api/v1/admin/inventory
func (h *AdminHandler) InventoryList(c *fiber.Ctx) error {
	rows, err := h.Inventory.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load inventory")
	}
	return c.JSON(fiber.Map{"variants": rows})
}

// PUT /api/v1/admin/variants/:id/stock
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	var req qtyRequest
	if err := c.BodyParser(&req); err != nil || !okID || req.Qty < 0 {
		return badInput(c, "qty", "invalid input")
	}
	err := h.Inventory.SetStock(c.UserContext(), id, req.Qty)
	if errors.Is(err, services.ErrVariantNotFound) {
		return fail(c, fiber.StatusNotFound, "unknown variant")
	}
	if err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"variant": id, "qty": req.Qty})
		return fail(c, fiber.StatusBadRequest, "could not save inventory")
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"variant": id, "qty": req.Qty})
	return c.JSON(fiber.Map{"variantId": id, "qty": req.Qty})
}

// GET /api/v1/admin/coupons
func (h *AdminHandler) CouponList(c *fiber.Ctx) error {
	rows, err := h.Coupons.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.coupons.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load coupons")
	}
	return c.JSON(fiber.Map{"coupons": rows})
}

type couponCreateRequest struct {
	Code       string `json:"code"`
	Percentage string `json:"percentage"`
	ExpiresAt  string `json:"expiresAt"`
}

// POST /api/v1/admin/coupons
func (h *AdminHandler) CouponCreate(c *fiber.Ctx) error {
	var req couponCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	code, ok := validate.Code(req.Code)
	if !ok {
		return badInput(c, "code", "invalid code")
	}
	pct, ok := validate.Percentage(req.Percentage)
	if !ok {
		return badInput(c, "percentage", "percentage must be between 0 and 100")
	}
	in := services.NewCoupon{Code: code, Percentage: pct}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return badInput(c, "expiresAt", "expiresAt must be RFC3339")
		}
		in.ExpiresAt = &t
	}
	row, err := h.Coupons.Create(c.UserContext(), in)
	if err != nil {
		applog.Error(c, "admin.coupons.create.fail", err, map[string]any{"code": code})
		return fail(c, fiber.StatusConflict, "could not create coupon")
	}
	applog.Audit(c, "admin.coupons.create", map[string]any{"code": row.Code, "percentage": row.Percentage.String()})
	return c.Status(fiber.StatusCreated).JSON(row)
}

// DELETE /api/v1/admin/coupons/:id
func (h *AdminHandler) CouponDeactivate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badInput(c, "id", "invalid id")
	}
	err := h.Coupons.Deactivate(c.UserContext(), id)
	if errors.Is(err, services.ErrCouponNotFound) {
		return fail(c, fiber.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.coupons.deactivate", map[string]any{"coupon": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/admin/users lists users (excluding admins).
func (h *AdminHandler) UsersList(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load users")
	}
	return c.JSON(fiber.Map{"users": users})
}

// DELETE /api/v1/admin/users/:id deletes a user and related data, cancels their orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badInput(c, "id", "missing id")
	}
	if err := h.Auth.DeleteAccount(c.UserContext(), id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return fail(c, fiber.StatusBadRequest, "could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
