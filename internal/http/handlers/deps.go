package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/kv"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// Infra holds the swappable backends. Nil fields fall back to the sqlite
// kv table, the sandbox gateway and the log publisher.
type Infra struct {
	KV       kv.Store
	Payments payment.Gateway
	Events   events.Publisher
}

type Deps struct {
	Auth     *services.AuthService
	Sessions *services.Sessions

	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	WishlistHandler  *WishlistHandler
	AuthHandler      *AuthHandler
	AdminHandler     *AdminHandler

	Limits Limits
}

func NewDeps(db *sqlx.DB, cfg config.Config, infra Infra) (*Deps, error) {
	if infra.KV == nil {
		infra.KV = repos.NewKVRepo(db)
	}
	if infra.Payments == nil {
		infra.Payments = payment.Sandbox{Limit: cfg.PaymentLimit}
	}
	if infra.Events == nil {
		infra.Events = events.LogPublisher{}
	}

	policy := pricing.DefaultPolicy()
	if !cfg.ShippingFee.IsZero() || !cfg.FreeShippingThreshold.IsZero() {
		policy = pricing.Policy{ShippingFee: cfg.ShippingFee, FreeShippingThreshold: cfg.FreeShippingThreshold}
	}
	engine := pricing.New(policy)

	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	userRepo := repos.NewUserRepo(db)

	sessions, err := services.NewSessions(repos.NewCartRepo(db), infra.KV, services.NewCouponValidator(couponRepo), cfg.SessionCacheSize)
	if err != nil {
		return nil, err
	}

	authSvc := &services.AuthService{Users: userRepo, Sessions: sessions, KV: infra.KV}
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, infra.KV)
	invSvc := services.NewInventoryService(invRepo)
	cartSvc := services.NewCartService(sessions, invRepo, prodRepo, engine)
	orderSvc := services.NewOrderService(sessions, orderRepo, infra.KV, engine, infra.Payments, infra.Events)
	wishSvc := services.NewWishlistService(repos.NewWishlistRepo(db))

	return &Deps{
		Auth:             authSvc,
		Sessions:         sessions,
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		WishlistHandler:  &WishlistHandler{Wish: wishSvc, Catalog: catalogSvc},
		AuthHandler:      &AuthHandler{Auth: authSvc},
		AdminHandler: &AdminHandler{
			Orders:    orderSvc,
			Inventory: invSvc,
			Coupons:   services.NewCouponService(couponRepo),
			Auth:      authSvc,
			Users:     userRepo,
		},
		Limits: DefaultLimits(),
	}, nil
}
