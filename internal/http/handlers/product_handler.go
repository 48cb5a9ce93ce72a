package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
	"storefront/internal/variant"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) productID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("id"))
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	d, err := h.Catalog.Detail(c.UserContext(), id)
	if errors.Is(err, services.ErrProductNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		return err
	}
	if err := h.Catalog.RecordView(c.UserContext(), ensureSID(c), id); err != nil {
		applog.Error(c, "catalog.recent.save.fail", err, map[string]any{"product": id})
	}
	return c.JSON(d)
}

// GET /api/v1/products/:id/selection?size=&color=&prevSize=&prevColor=&prevImage=
//
// The client sends its current selection back; the answer always points at
// an existing stock entry.
func (h *ProductHandler) Selection(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	prev := variant.State{
		Size:  c.Query("prevSize"),
		Color: c.Query("prevColor"),
		Image: domain.ImageRef(c.Query("prevImage")),
	}
	st, err := h.Catalog.Select(c.UserContext(), id, prev, c.Query("size"), c.Query("color"))
	if errors.Is(err, services.ErrProductNotFound) {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"selection": st, "inStock": st.InStock()})
}

// GET /api/v1/recent
func (h *ProductHandler) Recent(c *fiber.Ctx) error {
	ps, err := h.Catalog.Recent(c.UserContext(), ensureSID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": ps})
}
