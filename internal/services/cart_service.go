package services

import (
	"context"

	"github.com/go-faster/errors"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/repos"
)

type CartService struct {
	Sessions *Sessions
	Inv      *repos.InventoryRepo
	Prods    *repos.ProductRepo
	Pricing  pricing.Engine
}

func NewCartService(sessions *Sessions, inv *repos.InventoryRepo, prods *repos.ProductRepo, engine pricing.Engine) *CartService {
	return &CartService{Sessions: sessions, Inv: inv, Prods: prods, Pricing: engine}
}

// CartView is the cart as the client renders it. Totals are exact; Display
// is the same figures rounded for presentation.
type CartView struct {
	Lines   []domain.CartLine     `json:"lines"`
	Coupon  *domain.Coupon        `json:"coupon"`
	Totals  domain.CheckoutTotals `json:"totals"`
	Display domain.CheckoutTotals `json:"display"`
}

func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.view(sess), nil
}

func (s *CartService) view(sess *Session) CartView {
	lines, c := sess.Snapshot()
	t := s.Pricing.Compute(lines, c)
	return CartView{Lines: lines, Coupon: c, Totals: t, Display: pricing.DisplayTotals(t)}
}

// Add puts qty units of a variant in the cart, capped at the variant's
// current stock. A sold-out variant is refused with ErrInsufficientStock.
func (s *CartService) Add(ctx context.Context, sessionID, variantID string, qty int) (CartView, bool, error) {
	v, err := s.Inv.Variant(ctx, variantID)
	if errors.Is(err, repos.ErrVariantNotFound) {
		return CartView{}, false, ErrVariantNotFound
	}
	if err != nil {
		return CartView{}, false, err
	}
	if v.Quantity < 1 {
		return CartView{}, false, ErrInsufficientStock
	}
	p, err := s.Prods.Get(ctx, v.ProductID)
	if errors.Is(err, repos.ErrProductNotFound) {
		return CartView{}, false, ErrProductNotFound
	}
	if err != nil {
		return CartView{}, false, err
	}
	if !p.Active {
		return CartView{}, false, ErrProductNotFound
	}

	line := domain.CartLine{
		ProductID:    p.ID,
		VariantID:    v.ID,
		Name:         p.Name,
		Size:         v.Size,
		Color:        v.Color,
		UnitPrice:    pricing.UnitPrice(p),
		Quantity:     qty,
		StockCeiling: v.Quantity,
	}
	return s.mutate(ctx, sessionID, func(m *cart.Manager) (bool, error) {
		return m.AddOrIncrement(line), nil
	})
}

// UpdateQuantity sets a line's quantity. Out-of-range values are ignored and
// reported as unchanged.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, variantID string, qty int) (CartView, bool, error) {
	return s.mutate(ctx, sessionID, func(m *cart.Manager) (bool, error) {
		return m.UpdateQuantity(variantID, qty), nil
	})
}

func (s *CartService) Remove(ctx context.Context, sessionID, variantID string) (CartView, bool, error) {
	return s.mutate(ctx, sessionID, func(m *cart.Manager) (bool, error) {
		return m.Remove(variantID), nil
	})
}

// Clear empties the cart and drops its coupon.
func (s *CartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.Sessions.Clear(ctx, sess); err != nil {
		return CartView{}, err
	}
	return s.view(sess), nil
}

func (s *CartService) ApplyCoupon(ctx context.Context, sessionID, code string) (CartView, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if _, err := sess.Coupon.Apply(ctx, code); err != nil {
		return s.view(sess), err
	}
	return s.view(sess), nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, sessionID string) (CartView, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if err := sess.Coupon.Remove(ctx); err != nil {
		return CartView{}, err
	}
	return s.view(sess), nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*cart.Manager) (bool, error)) (CartView, bool, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, false, err
	}
	changed, err := s.Sessions.Mutate(ctx, sess, fn)
	if err != nil {
		return CartView{}, false, err
	}
	return s.view(sess), changed, nil
}
