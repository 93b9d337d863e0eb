package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/Gokul1734/Naticoco/internal/repository"
)

// Transition applies an actor-gated status change.
//
//	PENDING   -> PREPARING   store
//	PENDING   -> REJECTED    store
//	PREPARING -> COMPLETED   store
//	PENDING   -> CANCELLED   customer
//	PREPARING -> CANCELLED   customer
//
// Re-applying a transition that already took effect (current == target for a
// target the actor may drive) is a no-op success, so at-least-once clients
// can retry safely. Concurrent racers are serialized by the repository's
// compare-and-set; the loser gets ErrInvalidTransition.
func (s *OrderService) Transition(ctx context.Context, orderID string, role domain.ActorRole, actorID string, target domain.Status) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	if !domain.ValidStatus(target) {
		return nil, ErrInvalidStatus
	}

	order, err := s.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := gateActor(order, role, actorID, target); err != nil {
		return nil, err
	}

	// Idempotent retry: the transition already happened.
	if order.Status == target {
		return order, nil
	}

	if !domain.CanTransitionTo(order.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	from := order.Status
	now := time.Now()
	err = s.repo.UpdateStatus(ctx, orderID, from, target, now)
	if errors.Is(err, repository.ErrStaleStatus) {
		// Lost the race. If the winner drove the order to the same target,
		// this retry already took effect and succeeds like any other
		// idempotent re-apply.
		current, readErr := s.Order(ctx, orderID)
		if readErr == nil && current.Status == target {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = target
	order.UpdatedAt = now

	s.publishAsync(func(pubCtx context.Context) error {
		return s.publisher.OrderStatusChanged(pubCtx, order, from)
	}, order.OrderID)

	return order, nil
}

// gateActor enforces ownership and which targets each role may drive.
// Ownership or role violations are ErrForbidden; state legality is checked
// separately so a stale-state retry surfaces as ErrInvalidTransition.
func gateActor(order *domain.Order, role domain.ActorRole, actorID string, target domain.Status) error {
	switch role {
	case domain.ActorStore:
		if order.StoreID != actorID {
			return ErrForbidden
		}
		if target != domain.StatusPreparing && target != domain.StatusRejected && target != domain.StatusCompleted {
			return ErrForbidden
		}
	case domain.ActorCustomer:
		if order.UserID != actorID {
			return ErrForbidden
		}
		if target != domain.StatusCancelled {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}
