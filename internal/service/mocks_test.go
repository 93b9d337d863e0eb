package service

import (
	"context"
	"sync"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/Gokul1734/Naticoco/internal/payment"
	"github.com/Gokul1734/Naticoco/internal/repository"
)

// mockRepository implements repository.OrderRepository with the same
// compare-and-set semantics as the real backends.
type mockRepository struct {
	m      sync.RWMutex
	orders map[string]*domain.Order
	err    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: map[string]*domain.Order{}}
}

func (m *mockRepository) Create(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[order.OrderID]; ok {
		return repository.ErrOrderAlreadyExists
	}
	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *mockRepository) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, m.err
}

func (m *mockRepository) ListByStore(ctx context.Context, storeID string, status *domain.Status) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.StoreID != storeID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, m.err
}

func (m *mockRepository) UpdateStatus(_ context.Context, orderID string, from, to domain.Status, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.Status != from {
		return repository.ErrStaleStatus
	}
	order.Status = to
	order.UpdatedAt = at
	return nil
}

func (m *mockRepository) ListPreparingBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.Status == domain.StatusPreparing && o.UpdatedAt.Before(cutoff) && len(out) < limit {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, m.err
}

func (m *mockRepository) Close() error { return nil }

// mockVerifications implements payment.VerificationStore from a fixed map.
type mockVerifications struct {
	m        sync.RWMutex
	verified map[string]payment.Verification // paymentID -> record
	pending  map[string]int64                // gatewayOrderID -> amount
	err      error
}

func newMockVerifications() *mockVerifications {
	return &mockVerifications{
		verified: map[string]payment.Verification{},
		pending:  map[string]int64{},
	}
}

func (m *mockVerifications) SavePending(_ context.Context, gatewayOrderID string, amount int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.pending[gatewayOrderID] = amount
	return m.err
}

func (m *mockVerifications) PendingAmount(_ context.Context, gatewayOrderID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	amount, ok := m.pending[gatewayOrderID]
	if !ok {
		return 0, payment.ErrUnknownGatewayOrder
	}
	return amount, nil
}

func (m *mockVerifications) MarkVerified(_ context.Context, v payment.Verification) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.verified[v.PaymentID] = v
	return m.err
}

func (m *mockVerifications) ConsumeVerified(_ context.Context, paymentID string) (*payment.Verification, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.verified[paymentID]
	if !ok {
		return nil, payment.ErrNotVerified
	}
	delete(m.verified, paymentID)
	return &v, nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	m       sync.Mutex
	created []string
	changed []string
	stale   []string
}

func (p *recordingPublisher) OrderCreated(_ context.Context, order *domain.Order) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.created = append(p.created, order.OrderID)
	return nil
}

func (p *recordingPublisher) OrderStatusChanged(_ context.Context, order *domain.Order, _ domain.Status) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.changed = append(p.changed, order.OrderID)
	return nil
}

func (p *recordingPublisher) OrderStale(_ context.Context, order *domain.Order) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.stale = append(p.stale, order.OrderID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
