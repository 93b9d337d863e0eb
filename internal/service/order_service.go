package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Gokul1734/Naticoco/internal/cart"
	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/Gokul1734/Naticoco/internal/payment"
	"github.com/Gokul1734/Naticoco/internal/publisher"
	"github.com/Gokul1734/Naticoco/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// OrderService owns the order lifecycle: checkout converts a priced cart into
// a PENDING order, and role-gated transitions move it through the status
// graph. The repository is the only shared mutable state.
type OrderService struct {
	repo      repository.OrderRepository
	payments  payment.VerificationStore
	publisher publisher.EventPublisher
	sfg       singleflight.Group // collapses concurrent dashboard polls
}

func NewOrderService(repo repository.OrderRepository, payments payment.VerificationStore, pub publisher.EventPublisher) *OrderService {
	return &OrderService{
		repo:      repo,
		payments:  payments,
		publisher: pub,
	}
}

// CreateOrder validates and snapshots the cart, gates ONLINE orders on a
// server-side payment verification record, and persists the order in PENDING.
// The caller's cart must only be cleared after this returns nil.
func (s *OrderService) CreateOrder(ctx context.Context, userID, storeID string, c *cart.Cart, method domain.PaymentMethod, paymentRef string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if storeID == "" {
		return nil, ErrInvalidStoreID
	}
	if c == nil || c.Empty() {
		return nil, ErrEmptyCart
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidLine, method)
	}

	lines := make([]domain.OrderLine, 0, len(c.Lines()))
	var amount int64
	for i, l := range c.Lines() {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d quantity %d", ErrInvalidLine, i, l.Quantity)
		}
		if l.UnitPrice <= 0 {
			return nil, fmt.Errorf("%w: line %d unit price %d", ErrInvalidLine, i, l.UnitPrice)
		}
		lines = append(lines, domain.OrderLine{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
		amount += int64(l.Quantity) * l.UnitPrice
	}

	var verification *payment.Verification
	if method == domain.PaymentOnline {
		v, err := s.confirmPayment(ctx, paymentRef, amount)
		if err != nil {
			return nil, err
		}
		verification = v
	} else {
		paymentRef = ""
	}

	now := time.Now()
	order := &domain.Order{
		OrderID:       uuid.New().String(),
		UserID:        userID,
		StoreID:       storeID,
		Lines:         lines,
		Amount:        amount,
		PaymentMethod: method,
		PaymentRef:    paymentRef,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if verification != nil {
			s.restoreVerification(ctx, verification)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishAsync(func(pubCtx context.Context) error {
		return s.publisher.OrderCreated(pubCtx, order)
	}, order.OrderID)

	return order, nil
}

// confirmPayment claims the server-side verification record for the payment
// reference. A client-asserted success flag never reaches this path. The
// claim is atomic, so one verified payment funds at most one order; if the
// order cannot be created after the claim, the record is handed back.
func (s *OrderService) confirmPayment(ctx context.Context, paymentRef string, amount int64) (*payment.Verification, error) {
	if paymentRef == "" {
		return nil, ErrPaymentNotConfirmed
	}

	v, err := s.payments.ConsumeVerified(ctx, paymentRef)
	if errors.Is(err, payment.ErrNotVerified) {
		return nil, ErrPaymentNotConfirmed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check payment verification: %w", err)
	}
	if v.Amount != amount {
		s.restoreVerification(ctx, v)
		return nil, ErrPaymentMismatch
	}
	return v, nil
}

func (s *OrderService) restoreVerification(ctx context.Context, v *payment.Verification) {
	if err := s.payments.MarkVerified(ctx, *v); err != nil {
		log.Printf("failed to restore verification for payment %v: %v", v.PaymentID, err)
	}
}

func (s *OrderService) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) OrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user: %w", err)
	}
	return orders, nil
}

// StoreOrders serves the dashboard poll. Dashboards hit this on a fixed
// interval from every open client, so identical in-flight queries are
// collapsed through singleflight; nothing is cached between polls, which
// keeps read-after-write intact for the next poll.
func (s *OrderService) StoreOrders(ctx context.Context, storeID string, status *domain.Status) ([]*domain.Order, error) {
	if storeID == "" {
		return nil, ErrInvalidStoreID
	}
	if status != nil && !domain.ValidStatus(*status) {
		return nil, ErrInvalidStatus
	}

	key := storeID
	if status != nil {
		key += ":" + status.String()
	}

	// The query runs detached from any one caller's cancellation: the first
	// dashboard client hanging up must not fail every collapsed waiter.
	qctx := context.WithoutCancel(ctx)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		return s.repo.ListByStore(qctx, storeID, status)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for store: %w", err)
	}
	return v.([]*domain.Order), nil
}

func (s *OrderService) publishAsync(fn func(context.Context) error, orderID string) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := fn(pubCtx); err != nil {
			log.Printf("failed to publish event for order %v: %v", orderID, err)
		}
	}()
}
