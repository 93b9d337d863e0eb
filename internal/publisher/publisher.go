package publisher

import (
	"context"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderStale         = "order.stale"
)

// OrderEvent is the payload pushed to the relay. Delivery is best-effort,
// at-least-once; subscribers must tolerate duplicates.
type OrderEvent struct {
	Type       string        `json:"type"`
	OrderID    string        `json:"order_id"`
	UserID     string        `json:"user_id"`
	StoreID    string        `json:"store_id"`
	Status     domain.Status `json:"status"`
	PrevStatus domain.Status `json:"prev_status,omitempty"`
	Amount     int64         `json:"amount"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.Status) error
	OrderStale(ctx context.Context, order *domain.Order) error
	Close() error
}

// NoopPublisher stands in when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, *domain.Order) error { return nil }

func (NoopPublisher) OrderStatusChanged(context.Context, *domain.Order, domain.Status) error {
	return nil
}

func (NoopPublisher) OrderStale(context.Context, *domain.Order) error { return nil }

func (NoopPublisher) Close() error { return nil }
