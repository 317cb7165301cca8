package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentColumns = `id, order_number, payment_type, payment_key, payment_status, total_amount, point_used, created_at, updated_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payment (id, order_number, payment_type, payment_key, payment_status, total_amount, point_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var paymentKey sql.NullString
	if payment.PaymentKey != "" {
		paymentKey = sql.NullString{String: payment.PaymentKey, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.OrderNumber,
		payment.Type,
		paymentKey,
		payment.Status,
		payment.TotalAmount,
		payment.PointUsed,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByOrderNumber retrieves a payment by its order number.
func (r *PaymentRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment
		WHERE order_number = $1 AND deleted_at IS NULL
	`

	return r.scanOne(r.q.QueryRowContext(ctx, query, orderNumber))
}

// GetByOrderNumberForUpdate retrieves a payment by its order number holding
// a row lock until the enclosing transaction ends.
func (r *PaymentRepository) GetByOrderNumberForUpdate(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment
		WHERE order_number = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return r.scanOne(r.q.QueryRowContext(ctx, query, orderNumber))
}

// Update persists the mutable fields of an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payment
		SET payment_status = $1, total_amount = $2, point_used = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.Status,
		payment.TotalAmount,
		payment.PointUsed,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks a payment as deleted without removing the row.
func (r *PaymentRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE payment SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *PaymentRepository) scanOne(row *sql.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var paymentKey sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.OrderNumber,
		&payment.Type,
		&paymentKey,
		&payment.Status,
		&payment.TotalAmount,
		&payment.PointUsed,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if paymentKey.Valid {
		payment.PaymentKey = paymentKey.String
	}

	return &payment, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
