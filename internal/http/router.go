package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST surface. /orders/myorder/{user_id} is registered
// alongside /orders/{store_id}; chi matches the static segment first.
func NewRouter(orders *OrdersHandler, payments *PaymentHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orders.CreateOrder)
		r.Post("/{order_id}/transition", orders.Transition)
		r.Get("/myorder/{user_id}", orders.ListUserOrders)
		r.Get("/{store_id}", orders.ListStoreOrders)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Post("/orders", payments.CreatePaymentOrder)
		r.Post("/verify", payments.VerifyPayment)
	})

	return r
}
