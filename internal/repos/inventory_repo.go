package repos

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

var (
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InventoryRepo reads and adjusts per-variant stock.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is one variant with its product name, for the admin stock list.
type InventoryRow struct {
	VariantID string `db:"variant_id" json:"variantId"`
	ProductID string `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Size      string `db:"size" json:"size"`
	Color     string `db:"color" json:"color"`
	Qty       int    `db:"qty" json:"qty"`
}

func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT v.id AS variant_id, v.product_id, p.name, v.size, v.color, v.qty
		FROM variants v
		JOIN products p ON p.id = v.product_id
		ORDER BY p.name, v.position
	`)
	return rows, err
}

// Variant returns one stock entry by id.
func (r *InventoryRepo) Variant(ctx context.Context, variantID string) (domain.StockVariant, error) {
	var row variantRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, product_id, size, color, qty, media_json
		FROM variants WHERE id = ?`, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StockVariant{}, ErrVariantNotFound
	}
	if err != nil {
		return domain.StockVariant{}, err
	}
	return row.toDomain()
}

func (r *InventoryRepo) Qty(ctx context.Context, variantID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT qty FROM variants WHERE id = ?`, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrVariantNotFound
	}
	return qty, err
}

// Decrement subtracts by units if enough stock exists. It runs on ex so
// order placement can call it inside its transaction.
func (r *InventoryRepo) Decrement(ctx context.Context, ex sqlx.ExecerContext, variantID string, by int) error {
	if ex == nil {
		ex = r.db
	}
	res, err := ex.ExecContext(ctx, `
		UPDATE variants
		SET qty = qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND qty >= ?
	`, by, variantID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.Wrapf(ErrInsufficientStock, "variant %s", variantID)
	}
	return nil
}

// SetQty overwrites the stock of an existing variant.
func (r *InventoryRepo) SetQty(ctx context.Context, variantID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE variants SET qty = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, qty, variantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVariantNotFound
	}
	return nil
}
