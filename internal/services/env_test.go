package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderPlacedV1
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e events.OrderPlacedV1) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type env struct {
	db        *sqlx.DB
	sessions  *services.Sessions
	cart      *services.CartService
	orders    *services.OrderService
	catalog   *services.CatalogService
	inventory *services.InventoryService
	published *recordingPublisher
}

// newEnv opens a seeded database in a temp dir and wires every service
// the way main does, with a sandbox gateway limited to limit.
func newEnv(t *testing.T, limit int64) *env {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := repos.NewKVRepo(db)
	validator := services.NewCouponValidator(repos.NewCouponRepo(db))
	sessions, err := services.NewSessions(repos.NewCartRepo(db), store, validator, 16)
	if err != nil {
		t.Fatal(err)
	}
	engine := pricing.New(pricing.DefaultPolicy())
	inv := repos.NewInventoryRepo(db)
	prods := repos.NewProductRepo(db)
	pub := &recordingPublisher{}

	return &env{
		db:        db,
		sessions:  sessions,
		cart:      services.NewCartService(sessions, inv, prods, engine),
		orders:    services.NewOrderService(sessions, repos.NewOrderRepo(db), store, engine, payment.Sandbox{Limit: decimal.NewFromInt(limit)}, pub),
		catalog:   services.NewCatalogService(repos.NewCategoryRepo(db), prods, store),
		inventory: services.NewInventoryService(inv),
		published: pub,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
