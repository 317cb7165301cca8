package domain

import "errors"

var (
	// ErrAlreadyCanceled is returned when cancellation is attempted on a
	// payment that is already fully canceled.
	ErrAlreadyCanceled = errors.New("payment already canceled")

	// ErrInvalidCancelAmount is returned for a non-positive cancel amount
	// that is not a full cancel.
	ErrInvalidCancelAmount = errors.New("invalid cancel amount")

	// ErrExceedCancelAmount is returned when the cancel amount exceeds the
	// remaining cash plus point total.
	ErrExceedCancelAmount = errors.New("cancel amount exceeds total paid")

	// ErrNegativeAmount is returned when a payment is created with a
	// negative cash or point amount.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrMissingReason is returned when an abort or cancel history row is
	// created without a reason.
	ErrMissingReason = errors.New("reason is required")
)
