package domain

import "time"

// PaymentHistory is one immutable ledger row recording a single lifecycle
// transition of a payment. Rows are only ever created, never updated or
// deleted; the ordered sequence of a payment's rows is its audit trail.
type PaymentHistory struct {
	ID         string
	PaymentID  string
	Status     PaymentStatus
	Amount     int64  // amount associated with this transition
	Reason     string // empty for approvals, required for aborts and cancels
	OccurredAt time.Time
}

// NewApprovedHistory records an approval transition.
func NewApprovedHistory(id string, payment *Payment, amount int64, occurredAt time.Time) *PaymentHistory {
	return &PaymentHistory{
		ID:         id,
		PaymentID:  payment.ID,
		Status:     PaymentStatusApproved,
		Amount:     amount,
		OccurredAt: occurredAt,
	}
}

// NewAbortedHistory records a failed approval attempt.
func NewAbortedHistory(id string, payment *Payment, amount int64, reason string, occurredAt time.Time) (*PaymentHistory, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	return &PaymentHistory{
		ID:         id,
		PaymentID:  payment.ID,
		Status:     PaymentStatusAborted,
		Amount:     amount,
		Reason:     reason,
		OccurredAt: occurredAt,
	}, nil
}

// NewCanceledHistory records a full cancellation.
func NewCanceledHistory(id string, payment *Payment, cancelAmount int64, reason string, occurredAt time.Time) (*PaymentHistory, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	return &PaymentHistory{
		ID:         id,
		PaymentID:  payment.ID,
		Status:     PaymentStatusCanceled,
		Amount:     cancelAmount,
		Reason:     reason,
		OccurredAt: occurredAt,
	}, nil
}

// NewPartialCanceledHistory records a partial cancellation.
func NewPartialCanceledHistory(id string, payment *Payment, cancelAmount int64, reason string, occurredAt time.Time) (*PaymentHistory, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	return &PaymentHistory{
		ID:         id,
		PaymentID:  payment.ID,
		Status:     PaymentStatusPartialCanceled,
		Amount:     cancelAmount,
		Reason:     reason,
		OccurredAt: occurredAt,
	}, nil
}
