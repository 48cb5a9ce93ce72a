package coupon_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/coupon"
	"storefront/internal/domain"
)

type fakeValidator struct {
	mu      sync.Mutex
	calls   int
	coupons map[string]domain.Coupon
	err     error
	// gate, when set, blocks Validate until a value is received.
	gate chan struct{}
	// entered is signalled once Validate has been called.
	entered chan struct{}
}

func (f *fakeValidator) Validate(ctx context.Context, code string) (domain.Coupon, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return domain.Coupon{}, f.err
	}
	c, ok := f.coupons[code]
	if !ok {
		return domain.Coupon{}, coupon.ErrInvalidCoupon
	}
	return c, nil
}

func pct(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newValidator() *fakeValidator {
	return &fakeValidator{coupons: map[string]domain.Coupon{
		"SAVE10": {ID: "c-10", Percentage: pct(10)},
		"SAVE20": {ID: "c-20", Percentage: pct(20)},
		"BROKEN": {ID: "c-x", Percentage: pct(150)},
	}}
}

func TestApplyBlankCodeSkipsValidator(t *testing.T) {
	v := newValidator()
	store := &coupon.MemStore{}
	g := coupon.NewGate(v, store)
	ctx := context.Background()

	_, err := g.Apply(ctx, "SAVE10")
	require.NoError(t, err)

	for _, code := range []string{"", "   ", "\t\n"} {
		_, err := g.Apply(ctx, code)
		assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	}
	assert.Equal(t, 1, v.calls)
	require.NotNil(t, g.Active())
	assert.Equal(t, "c-10", g.Active().ID, "blank input leaves the coupon in place")
}

func TestApplyReplacesNeverStacks(t *testing.T) {
	g := coupon.NewGate(newValidator(), &coupon.MemStore{})
	ctx := context.Background()

	_, err := g.Apply(ctx, "SAVE10")
	require.NoError(t, err)
	c, err := g.Apply(ctx, " SAVE20 ")
	require.NoError(t, err)
	assert.Equal(t, "c-20", c.ID)
	assert.Equal(t, "c-20", g.Active().ID)
}

func TestApplyFailureClearsPrevious(t *testing.T) {
	store := &coupon.MemStore{}
	g := coupon.NewGate(newValidator(), store)
	ctx := context.Background()

	_, err := g.Apply(ctx, "SAVE10")
	require.NoError(t, err)

	_, err = g.Apply(ctx, "EXPIRED")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, g.Active())
	persisted, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestApplyOutOfRangePercentageIsInvalid(t *testing.T) {
	g := coupon.NewGate(newValidator(), &coupon.MemStore{})
	_, err := g.Apply(context.Background(), "BROKEN")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, g.Active())
}

func TestApplyTransportErrorClears(t *testing.T) {
	v := newValidator()
	g := coupon.NewGate(v, &coupon.MemStore{})
	ctx := context.Background()
	_, err := g.Apply(ctx, "SAVE10")
	require.NoError(t, err)

	v.err = errors.New("connection refused")
	_, err = g.Apply(ctx, "SAVE20")
	require.Error(t, err)
	assert.NotErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, g.Active())
}

func TestRemoveIsUnconditional(t *testing.T) {
	g := coupon.NewGate(newValidator(), &coupon.MemStore{})
	ctx := context.Background()

	require.NoError(t, g.Remove(ctx))
	_, err := g.Apply(ctx, "SAVE10")
	require.NoError(t, err)
	require.NoError(t, g.Remove(ctx))
	assert.Nil(t, g.Active())
}

func TestLateResponseAfterRemoveIsDropped(t *testing.T) {
	v := newValidator()
	v.gate = make(chan struct{})
	v.entered = make(chan struct{}, 1)
	g := coupon.NewGate(v, &coupon.MemStore{})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := g.Apply(ctx, "SAVE10")
		errc <- err
	}()

	<-v.entered
	assert.True(t, g.Pending())
	require.NoError(t, g.Remove(ctx))
	close(v.gate)

	assert.ErrorIs(t, <-errc, coupon.ErrSuperseded)
	assert.Nil(t, g.Active(), "removed coupon must not come back")
	assert.False(t, g.Pending())
}

func TestOlderApplyLosesToNewer(t *testing.T) {
	v := newValidator()
	first := make(chan struct{})
	v.gate = first
	v.entered = make(chan struct{}, 1)
	g := coupon.NewGate(v, &coupon.MemStore{})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := g.Apply(ctx, "SAVE10")
		errc <- err
	}()
	<-v.entered

	v.mu.Lock()
	v.gate = nil
	v.entered = nil
	v.mu.Unlock()

	c, err := g.Apply(ctx, "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, "c-20", c.ID)

	close(first)
	assert.ErrorIs(t, <-errc, coupon.ErrSuperseded)
	assert.Equal(t, "c-20", g.Active().ID)
}

func TestLoadHydratesFromStore(t *testing.T) {
	store := &coupon.MemStore{}
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.Coupon{ID: "c-10", Percentage: pct(10)}))

	g := coupon.NewGate(newValidator(), store)
	require.NoError(t, g.Load(ctx))
	require.NotNil(t, g.Active())
	assert.True(t, pct(10).Equal(g.Active().Percentage))
}
