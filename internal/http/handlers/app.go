package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "storefront/internal/log"
)

const csrfHeader = "X-CSRF-Token"

// Rate is a request budget per client ip.
type Rate struct {
	Max    int
	Window time.Duration
}

type Limits struct {
	Global       Rate
	Login        Rate
	Availability Rate
	// BodyLimit caps request bodies in bytes.
	BodyLimit int
}

func DefaultLimits() Limits {
	return Limits{
		Global:       Rate{Max: 60, Window: time.Minute},
		Login:        Rate{Max: 5, Window: 10 * time.Minute},
		Availability: Rate{Max: 15, Window: 30 * time.Second},
		BodyLimit:    1 << 20,
	}
}

// NewApp builds the fiber app with the middleware chain and every route.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    d.Limits.BodyLimit,
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use(AttachUser(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        d.Limits.Global.Max,
		Expiration: d.Limits.Global.Window,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + csrfHeader,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	// hand the token to script clients
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok && tok != "" {
			c.Set(csrfHeader, tok)
		}
		return c.Next()
	})

	Register(app, d)
	return app
}

func Register(app *fiber.App, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api/v1")

	// Catalog
	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/products", d.SearchHandler.Products)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/products/:id/selection", d.ProductHandler.Selection)
	api.Get("/recent", d.ProductHandler.Recent)

	availLimiter := limiter.New(limiter.Config{
		Max:        d.Limits.Availability.Max,
		Expiration: d.Limits.Availability.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})
	api.Get("/availability", availLimiter, d.InventoryHandler.Check)

	// Cart
	api.Get("/cart", d.CartHandler.View)
	api.Delete("/cart", d.CartHandler.Clear)
	api.Post("/cart/items", d.CartHandler.Add)
	api.Patch("/cart/items/:variantId", d.CartHandler.Update)
	api.Delete("/cart/items/:variantId", d.CartHandler.Remove)
	api.Post("/cart/coupon", d.CartHandler.ApplyCoupon)
	api.Delete("/cart/coupon", d.CartHandler.RemoveCoupon)

	// Checkout & orders
	api.Get("/checkout/address", d.OrderHandler.Address)
	api.Put("/checkout/address", d.OrderHandler.SaveAddress)
	api.Post("/orders", d.OrderHandler.Place)
	api.Get("/orders", RequireUser(), d.OrderHandler.History)
	api.Get("/orders/:id", d.OrderHandler.View)

	// Wishlist
	api.Get("/wishlist", d.WishlistHandler.List)
	api.Post("/wishlist", d.WishlistHandler.Save)
	api.Delete("/wishlist/:productId", d.WishlistHandler.Unsave)

	// Auth (login throttled)
	api.Post("/login", limiter.New(limiter.Config{
		Max:        d.Limits.Login.Max,
		Expiration: d.Limits.Login.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", d.AuthHandler.Logout)
	api.Get("/me", RequireUser(), d.AuthHandler.Me)
	api.Delete("/me", RequireUser(), d.AuthHandler.DeleteAccount)

	// Admin
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/orders", d.AdminHandler.OrderList)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/inventory", d.AdminHandler.InventoryList)
	admin.Put("/variants/:id/stock", d.AdminHandler.SetStock)
	admin.Get("/coupons", d.AdminHandler.CouponList)
	admin.Post("/coupons", d.AdminHandler.CouponCreate)
	admin.Delete("/coupons/:id", d.AdminHandler.CouponDeactivate)
	admin.Get("/users", d.AdminHandler.UsersList)
	admin.Delete("/users/:id", d.AdminHandler.DeleteUser)

	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Not found")
	})
}
