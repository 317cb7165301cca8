package repository

import (
	"context"

	"paycore/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
// All reads exclude soft-deleted rows.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByOrderNumber retrieves a payment by its order number.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error)

	// GetByOrderNumberForUpdate retrieves a payment by its order number
	// holding a row lock until the enclosing transaction ends. Must be
	// called within a transaction.
	GetByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*domain.Payment, error)

	// Update persists the mutable fields of an existing payment.
	Update(ctx context.Context, payment *domain.Payment) error

	// SoftDelete marks a payment as deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error
}
