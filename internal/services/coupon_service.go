package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/coupon"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

// CouponValidator checks codes against the coupons table. Unknown, inactive
// and expired codes are all coupon.ErrInvalidCoupon.
type CouponValidator struct {
	Coupons *repos.CouponRepo
	Now     func() time.Time
}

var _ coupon.Validator = (*CouponValidator)(nil)

func NewCouponValidator(r *repos.CouponRepo) *CouponValidator {
	return &CouponValidator{Coupons: r, Now: time.Now}
}

func (v *CouponValidator) Validate(ctx context.Context, code string) (domain.Coupon, error) {
	row, err := v.Coupons.ByCode(ctx, code)
	if errors.Is(err, repos.ErrCouponNotFound) {
		return domain.Coupon{}, coupon.ErrInvalidCoupon
	}
	if err != nil {
		return domain.Coupon{}, err
	}
	if !row.Active {
		return domain.Coupon{}, errors.Wrap(coupon.ErrInvalidCoupon, "inactive")
	}
	if row.ExpiresAt.Valid {
		exp, err := time.Parse(time.RFC3339, row.ExpiresAt.String)
		if err != nil {
			return domain.Coupon{}, errors.Wrapf(err, "coupon %s expiry", row.ID)
		}
		if !v.Now().Before(exp) {
			return domain.Coupon{}, errors.Wrap(coupon.ErrInvalidCoupon, "expired")
		}
	}
	return domain.Coupon{ID: row.ID, Percentage: row.Percentage}, nil
}

// CouponService is the admin side of coupons.
type CouponService struct {
	Coupons *repos.CouponRepo
}

func NewCouponService(r *repos.CouponRepo) *CouponService { return &CouponService{Coupons: r} }

type NewCoupon struct {
	Code       string
	Percentage decimal.Decimal
	ExpiresAt  *time.Time
}

func (s *CouponService) List(ctx context.Context) ([]repos.CouponRow, error) {
	return s.Coupons.List(ctx)
}

func (s *CouponService) Create(ctx context.Context, in NewCoupon) (repos.CouponRow, error) {
	row := repos.CouponRow{
		ID:         "cp-" + uuid.NewString(),
		Code:       strings.ToUpper(strings.TrimSpace(in.Code)),
		Percentage: in.Percentage,
		Active:     true,
	}
	if in.ExpiresAt != nil {
		row.ExpiresAt = sql.NullString{String: in.ExpiresAt.UTC().Format(time.RFC3339), Valid: true}
	}
	if err := s.Coupons.Create(ctx, row); err != nil {
		return repos.CouponRow{}, errors.Wrap(err, "create coupon")
	}
	return row, nil
}

func (s *CouponService) Deactivate(ctx context.Context, id string) error {
	err := s.Coupons.Deactivate(ctx, id)
	if errors.Is(err, repos.ErrCouponNotFound) {
		return ErrCouponNotFound
	}
	return err
}
