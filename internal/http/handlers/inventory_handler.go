package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
	"storefront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/availability?variantId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	variantID, ok := validate.ID(c.Query("variantId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing variantId")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), variantID)
	if errors.Is(err, services.ErrVariantNotFound) {
		return fail(c, fiber.StatusNotFound, "unknown variant")
	}
	if err != nil {
		return err
	}
	return c.JSON(avail)
}
