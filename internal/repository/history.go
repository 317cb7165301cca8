package repository

import (
	"context"
	"time"

	"paycore/internal/domain"
)

// HistoryFilter narrows a payment history search. Zero-valued fields are
// unconstrained; set fields combine conjunctively. The date range is
// inclusive on both ends.
type HistoryFilter struct {
	Type   domain.PaymentType
	Status domain.PaymentStatus
	From   time.Time
	To     time.Time
}

// HistoryRepository defines the persistence operations for payment history
// rows. Rows are append-only; there are no update or delete operations.
type HistoryRepository interface {
	// Create appends a new history row.
	Create(ctx context.Context, history *domain.PaymentHistory) error

	// ListByPaymentID retrieves all history rows for a payment, newest first.
	ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.PaymentHistory, error)

	// Search retrieves a page of history rows matching the filter, sorted
	// by occurred_at descending.
	Search(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*domain.PaymentHistory, error)

	// Count returns the total number of rows matching the filter,
	// independent of paging.
	Count(ctx context.Context, filter HistoryFilter) (int64, error)
}
