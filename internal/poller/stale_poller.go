package poller

import (
	"context"
	"log"
	"time"

	"github.com/Gokul1734/Naticoco/internal/publisher"
	"github.com/Gokul1734/Naticoco/internal/repository"
)

const staleBatchSize = 100

// StalePoller watches for PREPARING orders that have sat untouched past the
// configured cutoff and emits an escalation event for each. It never
// force-transitions an order; resolving a stuck order stays with the store
// and the customer.
type StalePoller struct {
	repo      repository.OrderRepository
	publisher publisher.EventPublisher
	olderThan time.Duration
	tick      time.Duration
}

func NewStalePoller(repo repository.OrderRepository, pub publisher.EventPublisher, olderThan, tick time.Duration) *StalePoller {
	return &StalePoller{
		repo:      repo,
		publisher: pub,
		olderThan: olderThan,
		tick:      tick,
	}
}

func (p *StalePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *StalePoller) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-p.olderThan)
	orders, err := p.repo.ListPreparingBefore(ctx, cutoff, staleBatchSize)
	if err != nil {
		log.Printf("failed to list stale preparing orders: %v", err)
		return
	}

	for _, order := range orders {
		if err := p.publisher.OrderStale(ctx, order); err != nil {
			log.Printf("failed to publish stale event for order %v: %v", order.OrderID, err)
			continue
		}
		log.Printf("order %v preparing since %v, escalation published", order.OrderID, order.UpdatedAt)
	}
}
