// Package cart owns the line items of one shopping cart.
package cart

import (
	"context"

	"storefront/internal/domain"
)

// CouponRemover drops the coupon attached to the cart being cleared.
type CouponRemover interface {
	Remove(ctx context.Context) error
}

// Manager is the only writer of a cart's lines. Every line it holds keeps
// 1 <= Quantity <= StockCeiling. It is not safe for concurrent use; callers
// serialize access per cart.
type Manager struct {
	lines   []domain.CartLine
	coupons CouponRemover
}

// New returns a manager seeded with lines. Lines that violate the quantity
// bounds are dropped or capped.
func New(lines []domain.CartLine, coupons CouponRemover) *Manager {
	m := &Manager{coupons: coupons}
	m.Reset(lines)
	return m
}

// Lines returns a copy of the current lines in insertion order.
func (m *Manager) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Manager) Len() int { return len(m.lines) }

// Line returns the line for a variant.
func (m *Manager) Line(variantID string) (domain.CartLine, bool) {
	if i := m.index(variantID); i >= 0 {
		return m.lines[i], true
	}
	return domain.CartLine{}, false
}

// Reset replaces the lines wholesale, used to restore a snapshot.
func (m *Manager) Reset(lines []domain.CartLine) {
	m.lines = make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.StockCeiling < 1 || l.Quantity < 1 {
			continue
		}
		if l.Quantity > l.StockCeiling {
			l.Quantity = l.StockCeiling
		}
		m.lines = append(m.lines, l)
	}
}

// AddOrIncrement adds line or, when its variant is already in the cart,
// raises the quantity by line.Quantity up to the ceiling. The stored line
// takes the incoming price and ceiling. It reports whether the cart changed.
func (m *Manager) AddOrIncrement(line domain.CartLine) bool {
	if line.StockCeiling < 1 {
		return false
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	if i := m.index(line.VariantID); i >= 0 {
		cur := m.lines[i]
		qty := cur.Quantity + line.Quantity
		if qty > line.StockCeiling {
			qty = line.StockCeiling
		}
		line.Quantity = qty
		if sameLine(cur, line) {
			return false
		}
		m.lines[i] = line
		return true
	}

	if line.Quantity > line.StockCeiling {
		line.Quantity = line.StockCeiling
	}
	m.lines = append(m.lines, line)
	return true
}

// UpdateQuantity sets the quantity of a line. Values outside
// [1, StockCeiling] and unknown ids leave the cart untouched.
func (m *Manager) UpdateQuantity(variantID string, qty int) bool {
	i := m.index(variantID)
	if i < 0 {
		return false
	}
	if qty < 1 || qty > m.lines[i].StockCeiling {
		return false
	}
	if m.lines[i].Quantity == qty {
		return false
	}
	m.lines[i].Quantity = qty
	return true
}

// Remove deletes a line. Unknown ids are a no-op.
func (m *Manager) Remove(variantID string) bool {
	i := m.index(variantID)
	if i < 0 {
		return false
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	return true
}

// Clear empties the cart and removes its coupon. The lines are gone even if
// the coupon removal fails.
func (m *Manager) Clear(ctx context.Context) error {
	m.lines = m.lines[:0]
	if m.coupons == nil {
		return nil
	}
	return m.coupons.Remove(ctx)
}

func sameLine(a, b domain.CartLine) bool {
	return a.Quantity == b.Quantity &&
		a.StockCeiling == b.StockCeiling &&
		a.UnitPrice.Equal(b.UnitPrice) &&
		a.Name == b.Name
}

func (m *Manager) index(variantID string) int {
	for i, l := range m.lines {
		if l.VariantID == variantID {
			return i
		}
	}
	return -1
}
