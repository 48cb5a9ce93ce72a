// Package pricing derives checkout totals from cart lines and the active
// coupon. Values keep full precision; only RoundForDisplay rounds.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the shipping business thresholds.
type Policy struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// DefaultPolicy charges 15000 shipping below a 200000 subtotal.
func DefaultPolicy() Policy {
	return Policy{
		ShippingFee:           decimal.NewFromInt(15000),
		FreeShippingThreshold: decimal.NewFromInt(200000),
	}
}

// Engine computes checkout totals under one Policy.
type Engine struct {
	policy Policy
}

// New returns an Engine using p.
func New(p Policy) Engine {
	return Engine{policy: p}
}

func (e Engine) Policy() Policy { return e.policy }

// Compute returns subtotal, coupon discount, shipping and total for lines.
func (e Engine) Compute(lines []domain.CartLine, coupon *domain.Coupon) domain.CheckoutTotals {
	subtotal := Subtotal(lines)

	discount := decimal.Zero
	if coupon != nil {
		discount = subtotal.Mul(coupon.Percentage).Div(hundred)
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	shipping := e.policy.ShippingFee
	if taxable.GreaterThanOrEqual(e.policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return domain.CheckoutTotals{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: shipping,
		Total:       taxable.Add(shipping),
	}
}

func Subtotal(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// UnitPrice is what a product sells for right now.
func UnitPrice(p domain.Product) decimal.Decimal {
	if p.ActiveDiscount && p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// DiscountPercent is the whole-number markdown badge for a product. It is
// zero unless the discount is active and actually lowers the price.
func DiscountPercent(p domain.Product) int64 {
	if !p.ActiveDiscount || !p.DiscountPrice.Valid || p.Price.IsZero() {
		return 0
	}
	if p.DiscountPrice.Decimal.Equal(p.Price) {
		return 0
	}
	pct := p.Price.Sub(p.DiscountPrice.Decimal).Div(p.Price).Mul(hundred).Round(0)
	if pct.IsNegative() {
		return 0
	}
	return pct.IntPart()
}

// RoundForDisplay rounds a money value to whole currency units.
func RoundForDisplay(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// DisplayTotals returns a rounded copy of t.
func DisplayTotals(t domain.CheckoutTotals) domain.CheckoutTotals {
	return domain.CheckoutTotals{
		Subtotal:    RoundForDisplay(t.Subtotal),
		Discount:    RoundForDisplay(t.Discount),
		ShippingFee: RoundForDisplay(t.ShippingFee),
		Total:       RoundForDisplay(t.Total),
	}
}
