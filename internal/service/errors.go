package service

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to order")
	ErrInvalidLine         = errors.New("order line has non-positive quantity or price")
	ErrInvalidUserID       = errors.New("invalid user ID")
	ErrInvalidStoreID      = errors.New("invalid store ID")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed for this order")
	ErrPaymentMismatch     = errors.New("verified payment does not match order amount")
	ErrForbidden           = errors.New("actor may not operate on this order")
	ErrInvalidTransition   = errors.New("illegal order status transition")
	ErrOrderNotFound       = errors.New("order not found")
)
