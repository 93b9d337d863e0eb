package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
)

// MemoryRepository is the in-process OrderRepository used for local
// development and tests. Mutation goes through the same compare-and-set
// contract as the durable backends.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *MemoryRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; exists {
		return ErrOrderAlreadyExists
	}
	stored := *order
	stored.Lines = append([]domain.OrderLine(nil), order.Lines...)
	r.orders[order.OrderID] = &stored
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, copyOrder(o))
		}
	}
	sortByCreatedDesc(orders)
	return orders, nil
}

func (r *MemoryRepository) ListByStore(_ context.Context, storeID string, status *domain.Status) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range r.orders {
		if o.StoreID != storeID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		orders = append(orders, copyOrder(o))
	}
	sortByCreatedDesc(orders)
	return orders, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, orderID string, from, to domain.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != from {
		return ErrStaleStatus
	}
	order.Status = to
	order.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) ListPreparingBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusPreparing && o.UpdatedAt.Before(cutoff) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].UpdatedAt.Before(orders[j].UpdatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &c
}

func sortByCreatedDesc(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
