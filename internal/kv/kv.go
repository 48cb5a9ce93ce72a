// Package kv is the key-value persistence port for per-session state that
// lives outside the cart tables: recently viewed products, checkout step
// data and the applied coupon.
package kv

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store keeps opaque values under (scope, key). Scope is usually a session id.
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}

// ScopeDeleter is implemented by stores that can drop a whole scope at once.
type ScopeDeleter interface {
	DeleteScope(ctx context.Context, scope string) error
}

// GetJSON decodes the value under (scope, key) into v. It returns
// ErrNotFound when nothing is stored.
func GetJSON(ctx context.Context, s Store, scope, key string, v any) error {
	b, err := s.Get(ctx, scope, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Set(ctx, scope, key, b)
}
