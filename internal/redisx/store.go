// Package redisx is the redis-backed kv.Store.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"storefront/internal/kv"
)

const DefaultTTL = 30 * 24 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Store keeps values under "storefront:<scope>:<key>". Every write refreshes
// the key's TTL.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

var (
	_ kv.Store        = (*Store)(nil)
	_ kv.ScopeDeleter = (*Store)(nil)
)

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(scope, k string) string { return fmt.Sprintf("storefront:%s:%s", scope, k) }

func (s *Store) Get(ctx context.Context, scope, k string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key(scope, k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get %s", k)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, scope, k string, value []byte) error {
	if err := s.rdb.Set(ctx, key(scope, k), value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", k)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, scope, k string) error {
	if err := s.rdb.Del(ctx, key(scope, k)).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", k)
	}
	return nil
}

// DeleteScope removes every key of scope.
func (s *Store) DeleteScope(ctx context.Context, scope string) error {
	iter := s.rdb.Scan(ctx, 0, key(scope, "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrapf(err, "redis scan %s", scope)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
