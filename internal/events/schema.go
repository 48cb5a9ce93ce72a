package events

import (
	"time"

	"github.com/hamba/avro/v2"
)

const OrderPlacedSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.orders",
	"name": "order_placed",
	"fields": [
		{"name": "order_id", "type": "string"},
		{"name": "session_id", "type": "string"},
		{"name": "coupon_id", "type": ["null", "string"], "default": null},
		{"name": "subtotal", "type": "string"},
		{"name": "discount", "type": "string"},
		{"name": "shipping_fee", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "payment_ref", "type": "string"},
		{"name": "placed_at", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "items", "type": {"type": "array", "items": {
			"type": "record",
			"name": "order_item",
			"fields": [
				{"name": "variant_id", "type": "string"},
				{"name": "product_id", "type": "string"},
				{"name": "qty", "type": "int"},
				{"name": "unit_price", "type": "string"}
			]
		}}}
	]
}`

// Money fields carry decimal strings so no precision is lost on the wire.
type (
	OrderPlacedV1 struct {
		OrderID     string        `avro:"order_id"`
		SessionID   string        `avro:"session_id"`
		CouponID    *string       `avro:"coupon_id"`
		Subtotal    string        `avro:"subtotal"`
		Discount    string        `avro:"discount"`
		ShippingFee string        `avro:"shipping_fee"`
		Total       string        `avro:"total"`
		PaymentRef  string        `avro:"payment_ref"`
		PlacedAt    time.Time     `avro:"placed_at"`
		Items       []OrderItemV1 `avro:"items"`
	}

	OrderItemV1 struct {
		VariantID string `avro:"variant_id"`
		ProductID string `avro:"product_id"`
		Qty       int    `avro:"qty"`
		UnitPrice string `avro:"unit_price"`
	}
)

var orderPlacedSchema = avro.MustParse(OrderPlacedSchemaTextV1)

func OrderPlacedV1Avro() avro.Schema { return orderPlacedSchema }

func EncodeOrderPlaced(e OrderPlacedV1) ([]byte, error) {
	return avro.Marshal(orderPlacedSchema, e)
}

func DecodeOrderPlaced(data []byte) (OrderPlacedV1, error) {
	var e OrderPlacedV1
	err := avro.Unmarshal(orderPlacedSchema, data, &e)
	return e, err
}
