package coupon

import (
	"context"

	"github.com/go-faster/errors"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

const kvKey = "coupon"

// KVStore keeps a session's coupon in a kv.Store.
type KVStore struct {
	kv    kv.Store
	scope string
}

func NewKVStore(s kv.Store, scope string) *KVStore {
	return &KVStore{kv: s, scope: scope}
}

func (s *KVStore) Get(ctx context.Context) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := kv.GetJSON(ctx, s.kv, s.scope, kvKey, &c); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *KVStore) Set(ctx context.Context, c domain.Coupon) error {
	return kv.SetJSON(ctx, s.kv, s.scope, kvKey, c)
}

func (s *KVStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.scope, kvKey)
}

// MemStore is an in-process Store.
type MemStore struct {
	c *domain.Coupon
}

func (m *MemStore) Get(context.Context) (*domain.Coupon, error) {
	if m.c == nil {
		return nil, nil
	}
	c := *m.c
	return &c, nil
}

func (m *MemStore) Set(_ context.Context, c domain.Coupon) error {
	m.c = &c
	return nil
}

func (m *MemStore) Clear(context.Context) error {
	m.c = nil
	return nil
}
