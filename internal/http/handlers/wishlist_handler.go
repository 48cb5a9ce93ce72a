package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type WishlistHandler struct {
	Wish    *services.WishlistService
	Catalog *services.CatalogService
}

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

// GET /api/v1/wishlist
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), ensureSID(c))
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load wishlist")
	}
	return c.JSON(fiber.Map{"items": items})
}

// POST /api/v1/wishlist
func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req wishlistRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, "body", "invalid request body")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return badInput(c, "productId", "invalid productId")
	}
	if _, err := h.Catalog.GetProduct(c.UserContext(), pid); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "This item is no longer available")
		}
		return err
	}
	if err := h.Wish.Save(c.UserContext(), sid, pid); err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"product": pid})
		return fail(c, fiber.StatusInternalServerError, "Could not update wishlist")
	}
	return h.List(c)
}

// DELETE /api/v1/wishlist/:productId
func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badInput(c, "productId", "invalid productId")
	}
	if err := h.Wish.Unsave(c.UserContext(), sid, pid); err != nil {
		applog.Error(c, "wishlist.delete.fail", err, map[string]any{"product": pid})
		return fail(c, fiber.StatusInternalServerError, "Could not update wishlist")
	}
	return h.List(c)
}
