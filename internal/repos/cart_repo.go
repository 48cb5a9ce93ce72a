package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart returns the cart bound to the session, creating it on first use.
// The cart id equals the session id.
func (r *CartRepo) EnsureCart(ctx context.Context, sessionID string) (string, error) {
	var cartID string
	err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)
		ON CONFLICT(session_id) DO NOTHING`,
		sessionID, sessionID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// Load returns the cart lines in the order they were added.
func (r *CartRepo) Load(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	err := r.db.SelectContext(ctx, &lines, `
	  SELECT product_id, variant_id, name, size, color, unit_price, qty, stock_ceiling
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY position
	`, cartID)
	return lines, err
}

// Save replaces the stored lines of a cart with lines.
func (r *CartRepo) Save(ctx context.Context, cartID string, lines []domain.CartLine) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	for i, l := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items
			  (cart_id, variant_id, product_id, name, size, color, unit_price, qty, stock_ceiling, position)
			VALUES (?,?,?,?,?,?,?,?,?,?)
		`, cartID, l.VariantID, l.ProductID, l.Name, l.Size, l.Color, l.UnitPrice, l.Quantity, l.StockCeiling, i); err != nil {
			return errors.Wrapf(err, "save line %s", l.VariantID)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), cartID); err != nil {
		return err
	}
	return tx.Commit()
}
