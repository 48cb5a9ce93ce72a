package services

import (
	"context"

	"github.com/go-faster/errors"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability converts a variant's qty into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, variantID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(ctx, variantID)
	if errors.Is(err, repos.ErrVariantNotFound) {
		return domain.Availability{Status: "OUT_OF_STOCK"}, ErrVariantNotFound
	}
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx)
}

// SetStock overwrites a variant's quantity. Carts keep their ceilings until
// the line is added again.
func (s *InventoryService) SetStock(ctx context.Context, variantID string, qty int) error {
	if qty < 0 {
		return errors.New("stock must be >= 0")
	}
	err := s.Inv.SetQty(ctx, variantID, qty)
	if errors.Is(err, repos.ErrVariantNotFound) {
		return ErrVariantNotFound
	}
	return err
}
