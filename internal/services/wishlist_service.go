package services

import (
	"context"

	"storefront/internal/repos"
)

type WishlistService struct {
	Repo *repos.WishlistRepo
}

func NewWishlistService(r *repos.WishlistRepo) *WishlistService { return &WishlistService{Repo: r} }

func (s *WishlistService) Save(ctx context.Context, sessionID, productID string) error {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Add(ctx, id, productID)
}

func (s *WishlistService) Unsave(ctx context.Context, sessionID, productID string) error {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Remove(ctx, id, productID)
}

func (s *WishlistService) List(ctx context.Context, sessionID string) ([]repos.WishlistRow, error) {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, id)
}
