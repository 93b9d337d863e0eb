package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gokul1734/Naticoco/internal/domain"
)

func testOrder(id, userID, storeID string, status domain.Status, createdAt time.Time) *domain.Order {
	return &domain.Order{
		OrderID: id,
		UserID:  userID,
		StoreID: storeID,
		Lines: []domain.OrderLine{
			{ItemID: "item-1", Name: "Chicken 65", Quantity: 2, UnitPrice: 25000},
		},
		Amount:        50000,
		PaymentMethod: domain.PaymentCashOnDelivery,
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	order := testOrder("ord-1", "user-1", "store-1", domain.StatusPending, time.Now())
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, order.Amount, got.Amount)
	assert.Len(t, got.Lines, 1)

	// Stored order must not alias the caller's slice.
	got.Lines[0].Quantity = 99
	again, err := repo.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestMemoryRepository_CreateDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	order := testOrder("ord-1", "user-1", "store-1", domain.StatusPending, time.Now())
	require.NoError(t, repo.Create(ctx, order))

	err := repo.Create(ctx, order)
	assert.ErrorIs(t, err, ErrOrderAlreadyExists)
}

func TestMemoryRepository_GetMissing(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryRepository_ListByUserNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, testOrder("ord-1", "user-1", "store-1", domain.StatusPending, base)))
	require.NoError(t, repo.Create(ctx, testOrder("ord-2", "user-1", "store-2", domain.StatusPending, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, testOrder("ord-3", "user-2", "store-1", domain.StatusPending, base.Add(2*time.Minute))))

	orders, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ord-2", orders[0].OrderID)
	assert.Equal(t, "ord-1", orders[1].OrderID)
}

func TestMemoryRepository_ListByStoreStatusFilter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, testOrder("ord-1", "user-1", "store-1", domain.StatusPending, base)))
	require.NoError(t, repo.Create(ctx, testOrder("ord-2", "user-2", "store-1", domain.StatusPreparing, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, testOrder("ord-3", "user-3", "store-2", domain.StatusPending, base.Add(2*time.Minute))))

	all, err := repo.ListByStore(ctx, "store-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	preparing := domain.StatusPreparing
	filtered, err := repo.ListByStore(ctx, "store-1", &preparing)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ord-2", filtered[0].OrderID)
}

func TestMemoryRepository_UpdateStatusCompareAndSet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("ord-1", "user-1", "store-1", domain.StatusPending, time.Now())))

	now := time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, "ord-1", domain.StatusPending, domain.StatusPreparing, now))

	got, err := repo.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, got.Status)
	assert.Equal(t, now, got.UpdatedAt)

	// Second writer observed PENDING, order has moved on.
	err = repo.UpdateStatus(ctx, "ord-1", domain.StatusPending, domain.StatusRejected, time.Now())
	assert.ErrorIs(t, err, ErrStaleStatus)

	err = repo.UpdateStatus(ctx, "missing", domain.StatusPending, domain.StatusPreparing, time.Now())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryRepository_ConcurrentUpdateSingleWinner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("ord-1", "user-1", "store-1", domain.StatusPending, time.Now())))

	const writers = 32
	var wg sync.WaitGroup
	wins := make(chan domain.Status, writers)

	for i := 0; i < writers; i++ {
		target := domain.StatusPreparing
		if i%2 == 1 {
			target = domain.StatusRejected
		}
		wg.Add(1)
		go func(to domain.Status) {
			defer wg.Done()
			if err := repo.UpdateStatus(ctx, "ord-1", domain.StatusPending, to, time.Now()); err == nil {
				wins <- to
			}
		}(target)
	}
	wg.Wait()
	close(wins)

	var winners []domain.Status
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	got, err := repo.GetByID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.Status)
}

func TestMemoryRepository_ListPreparingBefore(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		o := testOrder(fmt.Sprintf("old-%d", i), "user-1", "store-1", domain.StatusPreparing, now.Add(-time.Duration(i+1)*time.Hour))
		require.NoError(t, repo.Create(ctx, o))
	}
	require.NoError(t, repo.Create(ctx, testOrder("fresh", "user-1", "store-1", domain.StatusPreparing, now)))
	require.NoError(t, repo.Create(ctx, testOrder("pending", "user-1", "store-1", domain.StatusPending, now.Add(-3*time.Hour))))

	stale, err := repo.ListPreparingBefore(ctx, now.Add(-30*time.Minute), 3)
	require.NoError(t, err)
	require.Len(t, stale, 3)

	// Oldest first, limit applied.
	assert.Equal(t, "old-4", stale[0].OrderID)
	assert.Equal(t, "old-3", stale[1].OrderID)
	assert.Equal(t, "old-2", stale[2].OrderID)
	for _, o := range stale {
		assert.Equal(t, domain.StatusPreparing, o.Status)
	}
}
