package repos

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrCouponNotFound = errors.New("coupon not found")

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

type CouponRow struct {
	ID         string          `db:"id" json:"id"`
	Code       string          `db:"code" json:"code"`
	Percentage decimal.Decimal `db:"percentage" json:"percentage"`
	Active     bool            `db:"active" json:"active"`
	ExpiresAt  sql.NullString  `db:"expires_at" json:"-"`
	CreatedAt  string          `db:"created_at" json:"createdAt"`
}

const couponCols = `id, code, percentage, active, expires_at, COALESCE(created_at,'') AS created_at`

// ByCode looks a coupon up case-insensitively.
func (r *CouponRepo) ByCode(ctx context.Context, code string) (CouponRow, error) {
	var c CouponRow
	err := r.db.GetContext(ctx, &c, `SELECT `+couponCols+` FROM coupons WHERE UPPER(code) = UPPER(?)`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return CouponRow{}, ErrCouponNotFound
	}
	return c, err
}

func (r *CouponRepo) List(ctx context.Context) ([]CouponRow, error) {
	out := []CouponRow{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+couponCols+` FROM coupons ORDER BY created_at DESC, code`)
	return out, err
}

func (r *CouponRepo) Create(ctx context.Context, c CouponRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons(id, code, percentage, active, expires_at, created_at)
		VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, c.ID, c.Code, c.Percentage, c.Active, c.ExpiresAt)
	return err
}

func (r *CouponRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE coupons SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCouponNotFound
	}
	return nil
}
