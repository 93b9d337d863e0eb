package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayOrder is the payment intent the gateway hands back before the user
// completes checkout in the provider UI.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64) (*GatewayOrder, error)
}

// HTTPGateway talks to the hosted gateway's orders API. Calls are bounded by
// the client timeout and wrapped in a circuit breaker so a flapping gateway
// fails fast instead of tying up request handlers.
type HTTPGateway struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*GatewayOrder]
}

func NewHTTPGateway(baseURL, keyID, secret string, timeout time.Duration) *HTTPGateway {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
	}
	return &HTTPGateway{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*GatewayOrder](settings),
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, amount int64) (*GatewayOrder, error) {
	order, err := g.breaker.Execute(func() (*GatewayOrder, error) {
		return g.createOrder(ctx, amount)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrGatewayUnavailable)
		}
		return nil, err
	}
	return order, nil
}

func (g *HTTPGateway) createOrder(ctx context.Context, amount int64) (*GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: "INR",
		Receipt:  "rcpt_" + uuid.New().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gateway order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("gateway response missing order id")
	}
	return &order, nil
}

// StubGateway issues locally generated intents for development and tests.
type StubGateway struct{}

func (StubGateway) CreateOrder(_ context.Context, amount int64) (*GatewayOrder, error) {
	return &GatewayOrder{
		ID:       "order_" + uuid.New().String(),
		Amount:   amount,
		Currency: "INR",
	}, nil
}
