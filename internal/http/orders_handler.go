package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Gokul1734/Naticoco/internal/cart"
	"github.com/Gokul1734/Naticoco/internal/domain"
	"github.com/Gokul1734/Naticoco/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	svc     *service.OrderService
	timeout time.Duration
}

func NewOrdersHandler(svc *service.OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// OrderLineDTO accepts the item identifier under either "id" or "_id"; the
// cart engine folds both onto one canonical key.
type OrderLineDTO struct {
	ItemID    string `json:"id,omitempty"`
	LegacyID  string `json:"_id,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequestDTO struct {
	UserID        string         `json:"userId"`
	StoreID       string         `json:"storeId"`
	Lines         []OrderLineDTO `json:"lines"`
	PaymentMethod string         `json:"paymentMethod"`
	PaymentRef    string         `json:"paymentRef,omitempty"`
}

type CreateOrderResponseDTO struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
}

type TransitionRequestDTO struct {
	ActorRole    string        `json:"actorRole"`
	ActorID      string        `json:"actorId"`
	TargetStatus domain.Status `json:"targetStatus"`
}

type TransitionResponseDTO struct {
	Status domain.Status `json:"status"`
}

// POST /orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	for _, l := range req.Lines {
		if l.ItemID == "" && l.LegacyID == "" {
			respondError(w, http.StatusBadRequest, "missing_item_id", "each line needs an id or _id")
			return
		}
		if l.Quantity <= 0 || l.Quantity > 99 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
			return
		}
	}

	// Lines folding onto one canonical key collapse into a single order
	// line: the first occurrence pins name and unit price, the last
	// quantity wins.
	c := cart.New()
	for _, l := range req.Lines {
		item := cart.Item{ID: l.ItemID, LegacyID: l.LegacyID, Name: l.Name, UnitPrice: l.UnitPrice}
		c.AddItem(item)
		c.UpdateQuantity(item.Key(), l.Quantity)
	}

	order, err := h.svc.CreateOrder(ctx, req.UserID, req.StoreID, c, domain.PaymentMethod(req.PaymentMethod), req.PaymentRef)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("order %v created for user %v (request %v)", order.OrderID, order.UserID, getRequestID(r.Context()))
	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		OrderID: order.OrderID,
		Status:  order.Status,
	})
}

// POST /orders/{order_id}/transition
func (h *OrdersHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	var req TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ActorID == "" {
		respondError(w, http.StatusBadRequest, "missing_actor", "actorId is required")
		return
	}

	order, err := h.svc.Transition(ctx, orderID, domain.ActorRole(req.ActorRole), req.ActorID, req.TargetStatus)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TransitionResponseDTO{Status: order.Status})
}

// GET /orders/myorder/{user_id}
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "user_id")
	orders, err := h.svc.OrdersByUser(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /orders/{store_id}?status=
func (h *OrdersHandler) ListStoreOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	storeID := chi.URLParam(r, "store_id")

	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.Status(raw)
		status = &s
	}

	orders, err := h.svc.StoreOrders(ctx, storeID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}
