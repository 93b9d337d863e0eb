package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrStaleStatus means the compare-and-set failed: the order moved to a
	// different status between the caller's read and this write.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// OrderRepository is the consumer-defined persistence contract for orders.
// UpdateStatus must be linearizable per order: of two concurrent calls with
// the same `from`, exactly one succeeds and the other gets ErrStaleStatus.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListByStore(ctx context.Context, storeID string, status *domain.Status) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to domain.Status, at time.Time) error
	ListPreparingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error)
	Close() error
}
