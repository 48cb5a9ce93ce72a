// Package coupon applies and removes the single active percentage coupon of
// a cart.
package coupon

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	// ErrInvalidCoupon is returned when a code is blank or rejected by the
	// validator.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrSuperseded is returned when another apply or a removal happened
	// while validation was in flight. The late result is dropped.
	ErrSuperseded = errors.New("coupon request superseded")
)

var maxPercentage = decimal.NewFromInt(100)

// Validator checks a code with the coupon service.
type Validator interface {
	Validate(ctx context.Context, code string) (domain.Coupon, error)
}

// Store persists the active coupon of one cart.
type Store interface {
	Get(ctx context.Context) (*domain.Coupon, error)
	Set(ctx context.Context, c domain.Coupon) error
	Clear(ctx context.Context) error
}

// Gate owns the active coupon. At most one coupon is active; a new apply
// replaces it.
type Gate struct {
	validator Validator
	store     Store

	mu      sync.Mutex
	gen     uint64
	pending int
	active  *domain.Coupon
}

func NewGate(v Validator, s Store) *Gate {
	return &Gate{validator: v, store: s}
}

// Load hydrates the gate from its store.
func (g *Gate) Load(ctx context.Context) error {
	c, err := g.store.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "load coupon")
	}
	g.mu.Lock()
	g.active = c
	g.mu.Unlock()
	return nil
}

// Active returns a copy of the active coupon, or nil.
func (g *Gate) Active() *domain.Coupon {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return nil
	}
	c := *g.active
	return &c
}

// Apply validates code and makes it the active coupon. Blank codes are
// rejected without calling the validator and leave the state as is. Any
// validator failure clears the active coupon.
func (g *Gate) Apply(ctx context.Context, code string) (domain.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Coupon{}, ErrInvalidCoupon
	}

	g.mu.Lock()
	g.gen++
	g.pending++
	ticket := g.gen
	g.mu.Unlock()

	c, verr := g.validator.Validate(ctx, code)
	if verr == nil && (c.Percentage.IsNegative() || c.Percentage.GreaterThan(maxPercentage)) {
		verr = errors.Wrapf(ErrInvalidCoupon, "percentage %s out of range", c.Percentage)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending--
	if ticket != g.gen {
		return domain.Coupon{}, ErrSuperseded
	}

	if verr != nil {
		if err := g.clearLocked(ctx); err != nil {
			return domain.Coupon{}, err
		}
		if errors.Is(verr, ErrInvalidCoupon) {
			return domain.Coupon{}, verr
		}
		return domain.Coupon{}, errors.Wrap(verr, "validate coupon")
	}

	if err := g.store.Set(ctx, c); err != nil {
		return domain.Coupon{}, errors.Wrap(err, "save coupon")
	}
	g.active = &c
	return c, nil
}

// Pending reports whether an apply is waiting on the validator.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending > 0
}

// Remove clears the active coupon and invalidates any apply in flight.
func (g *Gate) Remove(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return g.clearLocked(ctx)
}

func (g *Gate) clearLocked(ctx context.Context) error {
	g.active = nil
	if err := g.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear coupon")
	}
	return nil
}
