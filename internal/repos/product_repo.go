package repos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID             string              `db:"id"`
	CategoryID     string              `db:"category_id"`
	Name           string              `db:"name"`
	Description    string              `db:"description"`
	Price          decimal.Decimal     `db:"price"`
	DiscountPrice  decimal.NullDecimal `db:"discount_price"`
	ActiveDiscount bool                `db:"active_discount"`
	ImageCover     string              `db:"image_cover"`
	Active         bool                `db:"active"`
}

type variantRow struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	Size      string `db:"size"`
	Color     string `db:"color"`
	Qty       int    `db:"qty"`
	MediaJSON string `db:"media_json"`
}

const productCols = `id, category_id, name, description, price, discount_price,
	active_discount, image_cover, active`

func (p productRow) toDomain() domain.Product {
	return domain.Product{
		ID:             p.ID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		ActiveDiscount: p.ActiveDiscount,
		ImageCover:     domain.ImageRef(p.ImageCover),
		Active:         p.Active,
		Variants:       []domain.StockVariant{},
	}
}

func (v variantRow) toDomain() (domain.StockVariant, error) {
	media := []domain.ImageRef{}
	if v.MediaJSON != "" {
		if err := json.Unmarshal([]byte(v.MediaJSON), &media); err != nil {
			return domain.StockVariant{}, errors.Wrapf(err, "variant %s media", v.ID)
		}
	}
	return domain.StockVariant{
		ID:        v.ID,
		ProductID: v.ProductID,
		Size:      v.Size,
		Color:     v.Color,
		Quantity:  v.Qty,
		Media:     media,
	}, nil
}

// Get returns a product with its variants in declaration order.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	p := row.toDomain()
	p.Variants, err = r.Variants(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Variants(ctx context.Context, productID string) ([]domain.StockVariant, error) {
	var rows []variantRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT id, product_id, size, color, qty, media_json
	  FROM variants
	  WHERE product_id = ?
	  ORDER BY position, id
	`, productID); err != nil {
		return nil, err
	}
	out := make([]domain.StockVariant, 0, len(rows))
	for _, row := range rows {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *ProductRepo) ListByCategory(ctx context.Context, catID string, limit, offset int) ([]domain.Product, error) {
	return r.Search(ctx, "", catID, limit, offset)
}

// Search lists active products, optionally filtered by a lowercase query
// and category. Variants are not loaded.
func (r *ProductRepo) Search(ctx context.Context, q, catID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	args = append(args, limit, offset)

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ByIDs returns active products for ids, keeping the order of ids and
// skipping unknown ones.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE active = 1 AND id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.toDomain()
	}
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
