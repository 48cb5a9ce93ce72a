// Package payment authorizes order totals with a payment gateway.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrDeclined = errors.New("payment declined")

type Approval struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// Gateway approves or declines a charge. The protocol behind it is opaque.
type Gateway interface {
	Authorize(ctx context.Context, orderID string, amount decimal.Decimal) (Approval, error)
}

// Sandbox approves any non-negative amount up to Limit. A zero Limit
// approves everything.
type Sandbox struct {
	Limit decimal.Decimal
}

func (s Sandbox) Authorize(ctx context.Context, orderID string, amount decimal.Decimal) (Approval, error) {
	if err := ctx.Err(); err != nil {
		return Approval{}, err
	}
	if amount.IsNegative() {
		return Approval{}, errors.Wrapf(ErrDeclined, "order %s: negative amount", orderID)
	}
	if !s.Limit.IsZero() && amount.GreaterThan(s.Limit) {
		return Approval{}, errors.Wrapf(ErrDeclined, "order %s: %s over limit", orderID, amount)
	}
	return Approval{Reference: "sbx_" + uuid.NewString(), Amount: amount}, nil
}
