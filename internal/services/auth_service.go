package services

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/kv"
	"storefront/internal/repos"
)

type AuthService struct {
	Users    *repos.UserRepo
	Sessions *Sessions
	// KV holds per-session state; dropped on account deletion when the
	// store supports it.
	KV kv.Store
}

// Login binds the session to the user. The cart stays with the session, so
// items added before login are kept.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// DeleteAccount removes the user and every session bound to them.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	sids, err := s.Users.DeleteUserCascade(ctx, userID)
	if err != nil {
		return err
	}
	sd, _ := s.KV.(kv.ScopeDeleter)
	for _, sid := range sids {
		if s.Sessions != nil {
			s.Sessions.Forget(sid)
		}
		if sd == nil {
			continue
		}
		if err := sd.DeleteScope(ctx, sid); err != nil {
			return errors.Wrapf(err, "drop session state %s", sid)
		}
	}
	return nil
}
