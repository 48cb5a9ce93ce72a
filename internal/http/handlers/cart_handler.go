package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/coupon"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartResponse struct {
	services.CartView
	Changed bool `json:"changed"`
}

type addItemRequest struct {
	VariantID string `json:"variantId"`
	Qty       int    `json:"qty"`
}

type qtyRequest struct {
	Qty int `json:"qty"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load your cart")
	}
	return c.JSON(cv)
}

// POST /api/v1/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	variantID, ok := validate.ID(req.VariantID)
	if !ok {
		return badInput(c, "variantId", "missing variantId")
	}

	cv, changed, err := h.Cart.Add(c.UserContext(), sid, variantID, validate.ClampQty(req.Qty))
	switch {
	case errors.Is(err, services.ErrVariantNotFound), errors.Is(err, services.ErrProductNotFound):
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	case errors.Is(err, services.ErrInsufficientStock):
		return fail(c, fiber.StatusConflict, "This item is sold out")
	case err != nil:
		applog.Error(c, "cart.add.fail", err, map[string]any{"variant": variantID})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	applog.Info(c, "cart.add", map[string]any{"variant": variantID, "qty": req.Qty, "changed": changed})
	return c.JSON(cartResponse{CartView: cv, Changed: changed})
}

// PATCH /api/v1/cart/items/:variantId
//
// Quantities outside [1, stock] are ignored; the response reports
// changed=false with the cart as it was.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	variantID, ok := validate.ID(c.Params("variantId"))
	if !ok {
		return badInput(c, "variantId", "invalid variantId")
	}
	var req qtyRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	cv, changed, err := h.Cart.UpdateQuantity(c.UserContext(), sid, variantID, req.Qty)
	if err != nil {
		applog.Error(c, "cart.update.fail", err, map[string]any{"variant": variantID})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	return c.JSON(cartResponse{CartView: cv, Changed: changed})
}

// DELETE /api/v1/cart/items/:variantId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	variantID, ok := validate.ID(c.Params("variantId"))
	if !ok {
		return badInput(c, "variantId", "invalid variantId")
	}
	cv, changed, err := h.Cart.Remove(c.UserContext(), sid, variantID)
	if err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"variant": variantID})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	return c.JSON(cartResponse{CartView: cv, Changed: changed})
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cv, err := h.Cart.Clear(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "cart.clear.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not clear your cart")
	}
	return c.JSON(cartResponse{CartView: cv, Changed: true})
}

// POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	code, ok := validate.Code(req.Code)
	if !ok && code != "" {
		// a malformed code is a failed apply: the previous coupon goes too
		applog.Security(c, "validation.fail", map[string]any{"field": "code"})
		cv, err := h.Cart.RemoveCoupon(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "coupon.remove.fail", err, nil)
			return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid coupon code", "cart": cv})
	}

	cv, err := h.Cart.ApplyCoupon(c.UserContext(), sid, code)
	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		applog.Info(c, "coupon.apply.rejected", map[string]any{"code": code})
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid coupon code", "cart": cv})
	case errors.Is(err, coupon.ErrSuperseded):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a newer coupon request replaced this one", "cart": cv})
	case err != nil:
		applog.Error(c, "coupon.apply.fail", err, map[string]any{"code": code})
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "could not validate coupon", "cart": cv})
	}
	fields := map[string]any{"code": code}
	if cv.Coupon != nil {
		fields["coupon"] = cv.Coupon.ID
	}
	applog.Audit(c, "coupon.apply", fields)
	return c.JSON(cv)
}

// DELETE /api/v1/cart/coupon
func (h *CartHandler) RemoveCoupon(c *fiber.Ctx) error {
	cv, err := h.Cart.RemoveCoupon(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "coupon.remove.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not remove the coupon")
	}
	return c.JSON(cv)
}
