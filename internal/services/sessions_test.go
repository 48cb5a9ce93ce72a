package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/coupon"
	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// slowValidator accepts every code once release is closed.
type slowValidator struct {
	entered chan struct{}
	release chan struct{}
}

func (v *slowValidator) Validate(ctx context.Context, code string) (domain.Coupon, error) {
	v.entered <- struct{}{}
	<-v.release
	return domain.Coupon{ID: "cp-" + code, Percentage: decimal.NewFromInt(10)}, nil
}

func TestSessions_EvictedWhileApplyingKeepsOneGate(t *testing.T) {
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repos.NewKVRepo(db)
	v := &slowValidator{entered: make(chan struct{}), release: make(chan struct{})}
	sessions, err := services.NewSessions(repos.NewCartRepo(db), store, v, 1)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := sessions.Get(ctx, "a")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := first.Coupon.Apply(ctx, "LATE")
		done <- err
	}()
	<-v.entered

	// "b" pushes "a" out of a cache of one while its apply is in flight
	_, err = sessions.Get(ctx, "b")
	require.NoError(t, err)

	again, err := sessions.Get(ctx, "a")
	require.NoError(t, err)
	require.Same(t, first, again)

	require.NoError(t, again.Coupon.Remove(ctx))
	close(v.release)
	assert.ErrorIs(t, <-done, coupon.ErrSuperseded)

	assert.Nil(t, again.Coupon.Active())
	stored, err := coupon.NewKVStore(store, "a").Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSessions_IdleEvictionReloads(t *testing.T) {
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := services.NewSessions(repos.NewCartRepo(db), repos.NewKVRepo(db), services.NewCouponValidator(repos.NewCouponRepo(db)), 1)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := sessions.Get(ctx, "a")
	require.NoError(t, err)
	_, err = first.Coupon.Apply(ctx, "WELCOME10")
	require.NoError(t, err)

	_, err = sessions.Get(ctx, "b")
	require.NoError(t, err)

	again, err := sessions.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotSame(t, first, again)
	require.NotNil(t, again.Coupon.Active())
	assert.Equal(t, "cp-welcome10", again.Coupon.Active().ID)
}
