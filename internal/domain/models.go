package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"-"`
	UpdatedAt string `db:"updated_at" json:"-"`
}

// ImageRef is a media path relative to the asset host.
type ImageRef string

type StockVariant struct {
	ID        string     `json:"id"`
	ProductID string     `json:"productId"`
	Size      string     `json:"size"`
	Color     string     `json:"color"`
	Quantity  int        `json:"quantity"`
	Media     []ImageRef `json:"media"`
}

type Product struct {
	ID             string              `json:"id"`
	CategoryID     string              `json:"categoryId"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	DiscountPrice  decimal.NullDecimal `json:"discountPrice"`
	ActiveDiscount bool                `json:"activeDiscount"`
	ImageCover     ImageRef            `json:"imageCover"`
	Active         bool                `json:"active"`
	Variants       []StockVariant      `json:"variants"`
}

// CartLine is one variant in a cart. VariantID identifies the line.
type CartLine struct {
	ProductID    string          `db:"product_id" json:"productId"`
	VariantID    string          `db:"variant_id" json:"variantId"`
	Name         string          `db:"name" json:"name"`
	Size         string          `db:"size" json:"size"`
	Color        string          `db:"color" json:"color"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity     int             `db:"qty" json:"quantity"`
	StockCeiling int             `db:"stock_ceiling" json:"stockCeiling"`
}

type Coupon struct {
	ID         string          `json:"id"`
	Percentage decimal.Decimal `json:"percentage"`
}

type CheckoutTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
}

type Address struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Availability is a variant's stock summarized for display.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

const (
	OrderPlaced    = "PLACED"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCanceled  = "CANCELED"
)
