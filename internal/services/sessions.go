package services

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	lru "github.com/hashicorp/golang-lru"

	"storefront/internal/cart"
	"storefront/internal/coupon"
	"storefront/internal/domain"
	"storefront/internal/kv"
	"storefront/internal/repos"
)

const DefaultSessionCacheSize = 1024

// Session is the live cart state of one visitor. Cart mutations hold mu;
// coupon validation does not, so a slow validator never blocks the cart.
type Session struct {
	ID     string
	Cart   *cart.Manager
	Coupon *coupon.Gate

	mu     sync.Mutex
	cartID string
}

// busy reports whether a request is still working on the session.
func (sess *Session) busy() bool {
	if sess.Coupon.Pending() {
		return true
	}
	if !sess.mu.TryLock() {
		return true
	}
	sess.mu.Unlock()
	return false
}

// Sessions caches live sessions. State is written through to the cart
// tables and the kv store, so an evicted session reloads unchanged.
// A session evicted while busy is parked until its next Get, so one
// visitor never has two live gates.
type Sessions struct {
	Carts     *repos.CartRepo
	KV        kv.Store
	Validator coupon.Validator

	mu     sync.Mutex // guards cache writes and parked
	cache  *lru.Cache
	parked map[string]*Session
}

func NewSessions(carts *repos.CartRepo, store kv.Store, v coupon.Validator, size int) (*Sessions, error) {
	if size <= 0 {
		size = DefaultSessionCacheSize
	}
	s := &Sessions{Carts: carts, KV: store, Validator: v, parked: map[string]*Session{}}
	c, err := lru.NewWithEvict(size, s.evicted)
	if err != nil {
		return nil, errors.Wrap(err, "session cache")
	}
	s.cache = c
	return s, nil
}

// evicted runs with s.mu held; every cache write happens under it.
func (s *Sessions) evicted(key, value interface{}) {
	for sid, sess := range s.parked {
		if !sess.busy() {
			delete(s.parked, sid)
		}
	}
	if sess := value.(*Session); sess.busy() {
		s.parked[key.(string)] = sess
	}
}

// Get returns the cached session for sid or loads it.
func (s *Sessions) Get(ctx context.Context, sid string) (*Session, error) {
	if v, ok := s.cache.Get(sid); ok {
		return v.(*Session), nil
	}
	if sess := s.unpark(sid); sess != nil {
		return sess, nil
	}

	cartID, err := s.Carts.EnsureCart(ctx, sid)
	if err != nil {
		return nil, errors.Wrap(err, "ensure cart")
	}
	lines, err := s.Carts.Load(ctx, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	gate := coupon.NewGate(s.Validator, coupon.NewKVStore(s.KV, sid))
	if err := gate.Load(ctx); err != nil {
		return nil, err
	}
	sess := &Session{ID: sid, cartID: cartID, Coupon: gate}
	sess.Cart = cart.New(lines, gate)

	// Another request may have loaded the same session meanwhile.
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(sid); ok {
		return v.(*Session), nil
	}
	if p, ok := s.parked[sid]; ok {
		delete(s.parked, sid)
		sess = p
	}
	s.cache.Add(sid, sess)
	return sess, nil
}

func (s *Sessions) unpark(sid string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(sid); ok {
		return v.(*Session)
	}
	sess, ok := s.parked[sid]
	if !ok {
		return nil
	}
	delete(s.parked, sid)
	s.cache.Add(sid, sess)
	return sess
}

// Forget drops a session from the cache.
func (s *Sessions) Forget(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(sid)
	delete(s.parked, sid)
}

// Mutate runs fn under the session lock and persists the lines when fn
// reports a change. A failed save restores the previous lines.
func (s *Sessions) Mutate(ctx context.Context, sess *Session, fn func(m *cart.Manager) (bool, error)) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.mutateLocked(ctx, sess, fn)
}

func (s *Sessions) mutateLocked(ctx context.Context, sess *Session, fn func(m *cart.Manager) (bool, error)) (bool, error) {
	snapshot := sess.Cart.Lines()
	changed, err := fn(sess.Cart)
	if err != nil {
		sess.Cart.Reset(snapshot)
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := s.Carts.Save(ctx, sess.cartID, sess.Cart.Lines()); err != nil {
		sess.Cart.Reset(snapshot)
		return false, errors.Wrap(err, "save cart")
	}
	return true, nil
}

// Clear persists an empty cart and only then drops the lines and the
// coupon. A failed save leaves both untouched.
func (s *Sessions) Clear(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.Carts.Save(ctx, sess.cartID, nil); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return sess.Cart.Clear(ctx)
}

// Snapshot returns the lines and active coupon under the session lock.
func (sess *Session) Snapshot() ([]domain.CartLine, *domain.Coupon) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.Cart.Lines(), sess.Coupon.Active()
}
