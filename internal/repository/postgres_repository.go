package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, order *domain.Order) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	query := `INSERT INTO orders (order_id, user_id, store_id, amount, payment_method, payment_ref, status, lines, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.OrderID,
		order.UserID,
		order.StoreID,
		order.Amount,
		order.PaymentMethod,
		order.PaymentRef,
		order.Status,
		linesJSON,
		order.CreatedAt,
		order.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

const orderColumns = `order_id, user_id, store_id, amount, payment_method, payment_ref, status, lines, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *PostgresRepository) ListByStore(ctx context.Context, storeID string, status *domain.Status) ([]*domain.Order, error) {
	var rows *sql.Rows
	var err error

	if status != nil {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1 AND status = $2 ORDER BY created_at DESC`
		rows, err = r.db.QueryContext(ctx, query, storeID, *status)
	} else {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1 ORDER BY created_at DESC`
		rows, err = r.db.QueryContext(ctx, query, storeID)
	}
	if err != nil {
		return nil, fmt.Errorf("query orders by store id: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// UpdateStatus performs a compare-and-set on (order_id, status). A losing
// racer matches zero rows and gets ErrStaleStatus.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.Status, at time.Time) error {
	query := `UPDATE orders SET status = $3, updated_at = $4 WHERE order_id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, orderID, from, to, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, orderID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("check order existence: %w", checkErr)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *PostgresRepository) ListPreparingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = $1 AND updated_at < $2 ORDER BY updated_at ASC LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, domain.StatusPreparing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale preparing orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var linesJSON []byte
	err := row.Scan(
		&order.OrderID,
		&order.UserID,
		&order.StoreID,
		&order.Amount,
		&order.PaymentMethod,
		&order.PaymentRef,
		&order.Status,
		&linesJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesJSON, &order.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}
