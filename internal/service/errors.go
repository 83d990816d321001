package service

import "errors"

// Domain rule violations. Handlers map these to 4xx responses; anything else
// coming out of a service is a storage failure and maps to 500.
var (
	ErrNotFound                = errors.New("record not found")
	ErrEmptyItems              = errors.New("at least one item is required")
	ErrInvalidItem             = errors.New("item quantity and inventory reference must be positive")
	ErrInvalidTransition       = errors.New("status transition not allowed")
	ErrQuotationConverted      = errors.New("quotation is converted and can no longer be modified")
	ErrOrderNotEditable        = errors.New("order items can only be edited before approval side effects or payments")
	ErrOrderNotPayable         = errors.New("order does not accept payments in its current status")
	ErrOrderNotReceivable      = errors.New("order must be shipped before items can be received")
	ErrPaymentNotPositive      = errors.New("payment amount must be positive")
	ErrPaymentExceedsRemaining = errors.New("payment amount exceeds remaining balance")
	ErrInvalidPaymentMethod    = errors.New("unknown payment method")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrQuantityNotPositive     = errors.New("quantity must be positive")
)
