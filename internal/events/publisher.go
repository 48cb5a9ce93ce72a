// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	applog "storefront/internal/log"
)

// Publisher delivers an OrderPlaced event after the order is committed.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlacedV1) error
	Close() error
}

// KafkaPublisher writes avro-encoded events keyed by order id, so all
// events of one order land on the same partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, e OrderPlacedV1) error {
	data, err := EncodeOrderPlaced(e)
	if err != nil {
		return errors.Wrap(err, "encode order_placed")
	}
	msg := kafka.Message{
		Key:     []byte(e.OrderID),
		Value:   data,
		Time:    e.PlacedAt,
		Headers: []kafka.Header{{Key: "schema", Value: []byte("order_placed.v1")}},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "publish order %s", e.OrderID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) PublishOrderPlaced(_ context.Context, e OrderPlacedV1) error {
	applog.Background("event.order_placed", nil, map[string]any{
		"order_id": e.OrderID,
		"total":    e.Total,
		"items":    len(e.Items),
	})
	return nil
}

func (LogPublisher) Close() error { return nil }
