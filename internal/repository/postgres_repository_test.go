package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Gokul1734/Naticoco/internal/domain"
)

func setupTestDB(t *testing.T) (*PostgresRepository, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newPersistedOrder(userID, storeID string, status domain.Status) *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		OrderID: uuid.New().String(),
		UserID:  userID,
		StoreID: storeID,
		Lines: []domain.OrderLine{
			{ItemID: "item-1", Name: "Chicken Biryani", Quantity: 1, UnitPrice: 32000},
			{ItemID: "item-2", Name: "Raita", Quantity: 2, UnitPrice: 4000},
		},
		Amount:        40000,
		PaymentMethod: domain.PaymentCashOnDelivery,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPostgresCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newPersistedOrder("user-123", "store-1", domain.StatusPending)

	require.NoError(t, repo.Create(ctx, order))

	fetched, err := repo.GetByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, fetched.OrderID)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.Equal(t, order.StoreID, fetched.StoreID)
	assert.Equal(t, order.Amount, fetched.Amount)
	assert.Equal(t, order.Status, fetched.Status)
	require.Len(t, fetched.Lines, 2)
	assert.Equal(t, order.Lines[0].Name, fetched.Lines[0].Name)
	assert.Equal(t, order.Lines[1].Quantity, fetched.Lines[1].Quantity)
}

func TestPostgresCreateOrder_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newPersistedOrder("user-123", "store-1", domain.StatusPending)

	require.NoError(t, repo.Create(ctx, order))
	err := repo.Create(ctx, order)
	assert.ErrorIs(t, err, ErrOrderAlreadyExists)
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPostgresUpdateStatus_CompareAndSet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newPersistedOrder("user-123", "store-1", domain.StatusPending)
	require.NoError(t, repo.Create(ctx, order))

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateStatus(ctx, order.OrderID, domain.StatusPending, domain.StatusPreparing, at))

	fetched, err := repo.GetByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, fetched.Status)

	// A writer still holding the PENDING snapshot loses the race.
	err = repo.UpdateStatus(ctx, order.OrderID, domain.StatusPending, domain.StatusRejected, time.Now().UTC())
	assert.ErrorIs(t, err, ErrStaleStatus)

	err = repo.UpdateStatus(ctx, uuid.New().String(), domain.StatusPending, domain.StatusPreparing, time.Now().UTC())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPostgresListByUser_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first := newPersistedOrder("user-a", "store-1", domain.StatusPending)
	second := newPersistedOrder("user-a", "store-2", domain.StatusPending)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.UpdatedAt = second.CreatedAt
	other := newPersistedOrder("user-b", "store-1", domain.StatusPending)

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	orders, err := repo.ListByUser(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.OrderID, orders[0].OrderID)
	assert.Equal(t, first.OrderID, orders[1].OrderID)
}

func TestPostgresListByStore_StatusFilter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	pending := newPersistedOrder("user-a", "store-1", domain.StatusPending)
	preparing := newPersistedOrder("user-b", "store-1", domain.StatusPreparing)
	elsewhere := newPersistedOrder("user-c", "store-2", domain.StatusPending)

	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, preparing))
	require.NoError(t, repo.Create(ctx, elsewhere))

	all, err := repo.ListByStore(ctx, "store-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := domain.StatusPreparing
	filtered, err := repo.ListByStore(ctx, "store-1", &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, preparing.OrderID, filtered[0].OrderID)
}

func TestPostgresListPreparingBefore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	stale := newPersistedOrder("user-a", "store-1", domain.StatusPreparing)
	stale.UpdatedAt = now.Add(-2 * time.Hour)
	fresh := newPersistedOrder("user-b", "store-1", domain.StatusPreparing)
	pending := newPersistedOrder("user-c", "store-1", domain.StatusPending)
	pending.UpdatedAt = now.Add(-2 * time.Hour)

	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, pending))

	got, err := repo.ListPreparingBefore(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stale.OrderID, got[0].OrderID)
}
