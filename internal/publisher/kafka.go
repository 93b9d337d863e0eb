package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher pushes order events to the relay topic. Messages are keyed
// by order id so all events for one order land on one partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		StoreID:    order.StoreID,
		Status:     order.Status,
		Amount:     order.Amount,
		OccurredAt: time.Now(),
	})
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.Status) error {
	return p.publish(ctx, OrderEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		StoreID:    order.StoreID,
		Status:     order.Status,
		PrevStatus: from,
		Amount:     order.Amount,
		OccurredAt: time.Now(),
	})
}

func (p *KafkaPublisher) OrderStale(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, OrderEvent{
		Type:       EventOrderStale,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		StoreID:    order.StoreID,
		Status:     order.Status,
		Amount:     order.Amount,
		OccurredAt: time.Now(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
