package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Gokul1734/Naticoco/internal/payment"
)

type PaymentHandler struct {
	gateway  payment.Gateway
	verifier *payment.SignatureVerifier
	store    payment.VerificationStore
	timeout  time.Duration
}

func NewPaymentHandler(gateway payment.Gateway, verifier *payment.SignatureVerifier, store payment.VerificationStore, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		gateway:  gateway,
		verifier: verifier,
		store:    store,
		timeout:  timeout,
	}
}

type CreatePaymentOrderRequestDTO struct {
	Amount int64 `json:"amount"` // minor currency units
}

type CreatePaymentOrderResponseDTO struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type VerifyPaymentRequestDTO struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

type VerifyPaymentResponseDTO struct {
	Verified bool `json:"verified"`
}

// POST /payment/orders
func (h *PaymentHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreatePaymentOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		return
	}

	order, err := h.gateway.CreateOrder(ctx, req.Amount)
	if err != nil {
		log.Printf("gateway order creation failed: %v", err)
		if errors.Is(err, payment.ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusServiceUnavailable, "gateway_unavailable", "payment gateway unavailable, try again")
			return
		}
		respondError(w, http.StatusBadGateway, "gateway_error", "payment gateway rejected the request")
		return
	}

	if err := h.store.SavePending(ctx, order.ID, order.Amount); err != nil {
		log.Printf("failed to record payment intent %v: %v", order.ID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, CreatePaymentOrderResponseDTO{
		GatewayOrderID: order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	})
}

// POST /payment/verify
//
// The signature is recomputed here with the shared secret; a mismatch fails
// closed and nothing is recorded. Only a successful verification makes the
// payment reference usable for order creation.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "gatewayOrderId, paymentId and signature are required")
		return
	}

	amount, err := h.store.PendingAmount(ctx, req.GatewayOrderID)
	if errors.Is(err, payment.ErrUnknownGatewayOrder) {
		respondError(w, http.StatusBadRequest, "unknown_gateway_order", "no payment intent for this gateway order")
		return
	}
	if err != nil {
		log.Printf("failed to load payment intent %v: %v", req.GatewayOrderID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if !h.verifier.Verify(req.GatewayOrderID, req.PaymentID, req.Signature) {
		log.Printf("signature mismatch for gateway order %v (request %v)", req.GatewayOrderID, getRequestID(r.Context()))
		respondError(w, http.StatusBadRequest, "verification_failed", "payment verification failed")
		return
	}

	v := payment.Verification{
		PaymentID:      req.PaymentID,
		GatewayOrderID: req.GatewayOrderID,
		Amount:         amount,
	}
	if err := h.store.MarkVerified(ctx, v); err != nil {
		log.Printf("failed to record verification for %v: %v", req.PaymentID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, VerifyPaymentResponseDTO{Verified: true})
}
