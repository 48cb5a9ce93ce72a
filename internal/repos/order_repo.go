package repos

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepo struct {
	db        *sqlx.DB
	inventory *InventoryRepo
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db, inventory: NewInventoryRepo(db)}
}

// ---------- Admin / history list ----------
type OrderSummary struct {
	ID            string          `db:"id" json:"id"`
	SessionID     string          `db:"session_id" json:"-"`
	CustomerName  string          `db:"customer_name" json:"customerName"`
	CustomerEmail string          `db:"customer_email" json:"customerEmail"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
}

// ---------- Order detail ----------
type OrderRow struct {
	ID          string          `db:"id" json:"id"`
	SessionID   string          `db:"session_id" json:"-"`
	UserID      string          `db:"user_id" json:"-"`
	Customer    string          `db:"customer_name" json:"customerName"`
	Email       string          `db:"customer_email" json:"customerEmail"`
	Phone       string          `db:"phone" json:"phone"`
	Street      string          `db:"street" json:"street"`
	City        string          `db:"city" json:"city"`
	PostalCode  string          `db:"postal_code" json:"postalCode"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount    decimal.Decimal `db:"discount" json:"discount"`
	ShippingFee decimal.Decimal `db:"shipping_fee" json:"shippingFee"`
	Total       decimal.Decimal `db:"total" json:"total"`
	CouponID    string          `db:"coupon_id" json:"couponId,omitempty"`
	PaymentRef  string          `db:"payment_ref" json:"paymentRef"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   string          `db:"created_at" json:"createdAt"`
}

type OrderItemRow struct {
	VariantID string          `db:"variant_id" json:"variantId"`
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Size      string          `db:"size" json:"size"`
	Color     string          `db:"color" json:"color"`
	Qty       int             `db:"qty" json:"qty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Subtotal  decimal.Decimal `db:"-" json:"subtotal"`
}

// NewOrder is everything Place needs to write an order.
type NewOrder struct {
	ID         string
	SessionID  string
	Address    domain.Address
	Totals     domain.CheckoutTotals
	CouponID   string
	PaymentRef string
	Lines      []domain.CartLine
}

// Place decrements stock for every line and writes the order header and
// items in a single transaction. Nothing is written when any variant is
// short of stock.
func (r *OrderRepo) Place(ctx context.Context, o NewOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range o.Lines {
		if err := r.inventory.Decrement(ctx, tx, l.VariantID, l.Quantity); err != nil {
			return err
		}
	}

	var couponID sql.NullString
	if o.CouponID != "" {
		couponID = sql.NullString{String: o.CouponID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, session_id, customer_name, customer_email, phone, street, city, postal_code,
	     subtotal, discount, shipping_fee, total, coupon_id, payment_ref, status, created_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'PLACED', CURRENT_TIMESTAMP)
	`, o.ID, o.SessionID, o.Address.Name, o.Address.Email, o.Address.Phone, o.Address.Street,
		o.Address.City, o.Address.PostalCode, o.Totals.Subtotal, o.Totals.Discount,
		o.Totals.ShippingFee, o.Totals.Total, couponID, o.PaymentRef); err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, variant_id, product_id, name, size, color, qty, price)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, l.VariantID, l.ProductID, l.Name, l.Size, l.Color, l.Quantity, l.UnitPrice); err != nil {
			return errors.Wrapf(err, "insert item %s", l.VariantID)
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	err := r.db.GetContext(ctx, &o, `
		SELECT o.id, COALESCE(o.session_id,'') AS session_id, COALESCE(s.user_id,'') AS user_id,
		       COALESCE(o.customer_name,'') AS customer_name, COALESCE(o.customer_email,'') AS customer_email,
		       COALESCE(o.phone,'') AS phone, COALESCE(o.street,'') AS street, COALESCE(o.city,'') AS city,
		       COALESCE(o.postal_code,'') AS postal_code,
		       o.subtotal, o.discount, o.shipping_fee, o.total,
		       COALESCE(o.coupon_id,'') AS coupon_id, COALESCE(o.payment_ref,'') AS payment_ref,
		       o.status, o.created_at
		FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.id = ?
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderRow{}, nil, ErrOrderNotFound
	}
	if err != nil {
		return OrderRow{}, nil, err
	}

	items := []OrderItemRow{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT variant_id, product_id, name, size, color, qty, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY name, variant_id
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}
	for i := range items {
		items[i].Subtotal = items[i].Price.Mul(decimal.NewFromInt(int64(items[i].Qty)))
	}
	return o, items, nil
}

const summaryCols = `o.id, COALESCE(o.session_id,'') AS session_id,
	COALESCE(o.customer_name,'') AS customer_name, COALESCE(o.customer_email,'') AS customer_email,
	o.total, o.status, o.created_at`

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []OrderSummary{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+summaryCols+`
		FROM orders o
		ORDER BY datetime(o.created_at) DESC, o.id
		LIMIT ?
	`, limit)
	return out, err
}

// ListByUser returns orders placed from any session the user is bound to.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]OrderSummary, error) {
	out := []OrderSummary{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+summaryCols+`
		FROM orders o
		JOIN sessions s ON s.id = o.session_id
		WHERE s.user_id = ?
		ORDER BY datetime(o.created_at) DESC, o.id
	`, userID)
	return out, err
}

func (r *OrderRepo) ListBySession(ctx context.Context, sessionID string) ([]OrderSummary, error) {
	out := []OrderSummary{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+summaryCols+`
		FROM orders o
		WHERE o.session_id = ?
		ORDER BY datetime(o.created_at) DESC, o.id
	`, sessionID)
	return out, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
