package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrUnknownGatewayOrder = errors.New("unknown gateway order")
	ErrNotVerified         = errors.New("payment not verified")
)

// Verification is the server-side record that a signed callback for this
// payment checked out. Order creation consults this record, never the client.
type Verification struct {
	PaymentID      string `json:"payment_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
}

type VerificationStore interface {
	// SavePending records the amount an intent was opened for, so the later
	// verification can be checked against it.
	SavePending(ctx context.Context, gatewayOrderID string, amount int64) error
	PendingAmount(ctx context.Context, gatewayOrderID string) (int64, error)
	MarkVerified(ctx context.Context, v Verification) error
	// ConsumeVerified atomically claims the verification record. Each
	// verified payment funds at most one order; a replayed reference gets
	// ErrNotVerified.
	ConsumeVerified(ctx context.Context, paymentID string) (*Verification, error)
}

type RedisVerificationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisVerificationStore(client *redis.Client, ttl time.Duration) *RedisVerificationStore {
	return &RedisVerificationStore{client: client, ttl: ttl}
}

func (s *RedisVerificationStore) SavePending(ctx context.Context, gatewayOrderID string, amount int64) error {
	key := pendingKey(gatewayOrderID)
	if err := s.client.Set(ctx, key, strconv.FormatInt(amount, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisVerificationStore) PendingAmount(ctx context.Context, gatewayOrderID string) (int64, error) {
	data, err := s.client.Get(ctx, pendingKey(gatewayOrderID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnknownGatewayOrder
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}

	amount, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse pending amount: %w", err)
	}
	return amount, nil
}

func (s *RedisVerificationStore) MarkVerified(ctx context.Context, v Verification) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verification failed: %w", err)
	}
	if err := s.client.Set(ctx, verifiedKey(v.PaymentID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisVerificationStore) ConsumeVerified(ctx context.Context, paymentID string) (*Verification, error) {
	data, err := s.client.GetDel(ctx, verifiedKey(paymentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotVerified
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v Verification
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification failed: %w", err)
	}
	return &v, nil
}

func pendingKey(gatewayOrderID string) string {
	return fmt.Sprintf("payintent:%s", gatewayOrderID)
}

func verifiedKey(paymentID string) string {
	return fmt.Sprintf("payverified:%s", paymentID)
}
