package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

const pageSize = 12

type SearchHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?category=&q=&page=
func (h *SearchHandler) Products(c *fiber.Ctx) error {
	var q, cat string
	if raw := c.Query("q"); raw != "" {
		v, ok := validate.Q(raw)
		if !ok {
			return badInput(c, "q", "invalid search query")
		}
		q = v
	}
	if raw := c.Query("category"); raw != "" {
		v, ok := validate.ID(raw)
		if !ok {
			return badInput(c, "category", "invalid category")
		}
		cat = v
	}
	page := c.QueryInt("page", 1)

	var products []domain.Product
	var err error
	if q == "" && cat != "" {
		products, err = h.Catalog.ListProductsByCategory(c.UserContext(), cat, page, pageSize)
	} else {
		products, err = h.Catalog.Search(c.UserContext(), q, cat, page, pageSize)
	}
	if err != nil {
		applog.Error(c, "catalog.search.fail", err, map[string]any{"q": q, "category": cat})
		return fail(c, fiber.StatusInternalServerError, "could not load products")
	}
	return c.JSON(fiber.Map{"products": products, "page": page})
}
