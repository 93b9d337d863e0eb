package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Gokul1734/Naticoco/internal/service"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Everything expected is a structured 4xx; only unknown failures become 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, service.ErrPaymentNotConfirmed), errors.Is(err, service.ErrPaymentMismatch):
		respondError(w, http.StatusPaymentRequired, "payment_not_confirmed", err.Error())
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidLine),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidStoreID),
		errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
