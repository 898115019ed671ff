// Package consumer prunes carts when an order.placed event arrives. The
// checkout clears the cart itself on success; this covers the case where
// that clear failed. Only lines added before the order completed are
// removed, so a late or redelivered event never drops a newer line.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	GroupID = "storefront-cart"

	DefaultReadBackoff = time.Second
)

// CartPruner removes cart lines added at or before cutoff.
type CartPruner interface {
	ClearAddedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error)
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type orderPlaced struct {
	CheckoutID  string    `json:"checkout_id"`
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type OrderPlacedConsumer struct {
	carts  CartPruner
	reader MessageReader
	log    *zap.Logger

	// backoff is the pause after a failed read before the next attempt.
	backoff time.Duration
}

func NewKafkaReader(topic string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewOrderPlacedConsumer(carts CartPruner, reader MessageReader, log *zap.Logger) *OrderPlacedConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderPlacedConsumer{carts: carts, reader: reader, log: log, backoff: DefaultReadBackoff}
}

func (c *OrderPlacedConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
		}
	}
}

func (c *OrderPlacedConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing kafka reader", zap.Error(err))
	}
}

// processMessage handles one message. It returns an error only when the
// read itself failed; bad or unrelated messages are logged and skipped.
func (c *OrderPlacedConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		c.log.Warn("error reading message", zap.Error(err), zap.Duration("retry_in", c.backoff))
		return err
	}

	if t := eventType(m); t != "" && t != journal.EventOrderPlaced {
		return nil
	}

	var event orderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Warn("error parsing message", zap.Error(err), zap.Int64("offset", m.Offset))
		return nil
	}
	if event.UserID == "" {
		c.log.Warn("order placed event without user_id", zap.String("checkout_id", event.CheckoutID))
		return nil
	}
	if event.CompletedAt.IsZero() {
		c.log.Warn("order placed event without completed_at", zap.String("checkout_id", event.CheckoutID))
		return nil
	}

	removed, err := c.carts.ClearAddedBefore(ctx, event.UserID, event.CompletedAt)
	if err != nil {
		c.log.Warn("failed to prune cart",
			zap.String("user_id", event.UserID), zap.String("checkout_id", event.CheckoutID), zap.Error(err))
		return nil
	}
	c.log.Debug("cart pruned after order",
		zap.String("user_id", event.UserID), zap.String("checkout_id", event.CheckoutID), zap.Int("removed", removed))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
