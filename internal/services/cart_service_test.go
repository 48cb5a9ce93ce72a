package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/coupon"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestCart_AddCapsAtStock(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	v, changed, err := e.cart.Add(ctx, "s1", "tee-basic-m-white", 5)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 3, v.Lines[0].Quantity)
	assert.Equal(t, 3, v.Lines[0].StockCeiling)

	_, changed, err = e.cart.Add(ctx, "s1", "tee-basic-m-white", 1)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCart_SoldOutAndUnknownVariants(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "tee-basic-l-black", 1)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, _, err = e.cart.Add(ctx, "s1", "no-such-variant", 1)
	assert.ErrorIs(t, err, services.ErrVariantNotFound)

	v, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	assert.True(t, v.Totals.ShippingFee.Equal(dec("15000")), "empty cart still pays shipping")
}

func TestCart_UpdateQuantityOutOfRangeIgnored(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "tee-basic-m-black", 1)
	require.NoError(t, err)

	for _, q := range []int{0, -1, 6} {
		v, changed, err := e.cart.UpdateQuantity(ctx, "s1", "tee-basic-m-black", q)
		require.NoError(t, err)
		assert.False(t, changed, "qty %d", q)
		assert.Equal(t, 1, v.Lines[0].Quantity)
	}

	v, changed, err := e.cart.UpdateQuantity(ctx, "s1", "tee-basic-m-black", 5)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 5, v.Lines[0].Quantity)
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "cap-logo-black", 1)
	require.NoError(t, err)

	_, changed, err := e.cart.Remove(ctx, "s1", "cap-logo-black")
	require.NoError(t, err)
	assert.True(t, changed)

	v, changed, err := e.cart.Remove(ctx, "s1", "cap-logo-black")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, v.Lines)
}

func TestCart_ClearRemovesCoupon(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "cap-logo-black", 2)
	require.NoError(t, err)
	_, err = e.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	v, err := e.cart.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	assert.Nil(t, v.Coupon)
}

func TestCart_CouponFailuresClear(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, err := e.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	// blank keeps the current coupon
	v, err := e.cart.ApplyCoupon(ctx, "s1", "   ")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	require.NotNil(t, v.Coupon)

	for _, code := range []string{"HALFOFF", "EXPIRED15", "NOPE"} {
		_, err = e.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
		require.NoError(t, err)

		v, err = e.cart.ApplyCoupon(ctx, "s1", code)
		assert.ErrorIs(t, err, coupon.ErrInvalidCoupon, code)
		assert.Nil(t, v.Coupon, code)
	}
}

func TestCart_StateSurvivesEviction(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "hoodie-zip-l-navy", 2)
	require.NoError(t, err)
	_, err = e.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	e.sessions.Forget("s1")

	v, err := e.cart.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 2, v.Lines[0].Quantity)
	require.NotNil(t, v.Coupon)
	assert.Equal(t, "cp-welcome10", v.Coupon.ID)
	// 700000 - 70000, over the free shipping threshold
	assert.True(t, v.Totals.Total.Equal(dec("630000")))
}

func TestCart_FailedSaveRestoresLines(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "tee-basic-s-black", 1)
	require.NoError(t, err)

	_, err = e.db.Exec(`DROP TABLE cart_items`)
	require.NoError(t, err)

	_, _, err = e.cart.UpdateQuantity(ctx, "s1", "tee-basic-s-black", 4)
	require.Error(t, err)

	sess, err := e.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	lines, _ := sess.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestCart_FailedClearKeepsLinesAndCoupon(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()

	_, _, err := e.cart.Add(ctx, "s1", "tee-basic-s-black", 1)
	require.NoError(t, err)
	_, err = e.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	_, err = e.db.Exec(`DROP TABLE cart_items`)
	require.NoError(t, err)

	_, err = e.cart.Clear(ctx, "s1")
	require.Error(t, err)

	sess, err := e.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	lines, c := sess.Snapshot()
	require.Len(t, lines, 1)
	require.NotNil(t, c)
	assert.Equal(t, "cp-welcome10", c.ID)

	stored, err := coupon.NewKVStore(repos.NewKVRepo(e.db), "s1").Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "cp-welcome10", stored.ID)
}
