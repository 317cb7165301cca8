package service

import "errors"

var (
	// ErrOrderNumberNotFound is returned when no payment exists for the
	// requested order number.
	ErrOrderNumberNotFound = errors.New("order number not found")

	// ErrPaymentKeyNotFound is returned when the supplied payment key does
	// not match the payment for the order number.
	ErrPaymentKeyNotFound = errors.New("payment key not found")

	// ErrInvalidOrderNumber is returned when the order number is empty.
	ErrInvalidOrderNumber = errors.New("invalid order number")

	// ErrInvalidCancelReason is returned when a cancellation carries no
	// reason.
	ErrInvalidCancelReason = errors.New("cancel reason is required")
)
