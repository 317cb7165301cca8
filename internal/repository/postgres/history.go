package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// HistoryRepository is a PostgreSQL implementation of repository.HistoryRepository.
type HistoryRepository struct {
	q Querier
}

// NewHistoryRepository creates a new PostgreSQL history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{q: db}
}

// NewHistoryRepositoryWithTx creates a history repository using a transaction.
func NewHistoryRepositoryWithTx(tx *sql.Tx) *HistoryRepository {
	return &HistoryRepository{q: tx}
}

// Create appends a new history row.
func (r *HistoryRepository) Create(ctx context.Context, history *domain.PaymentHistory) error {
	query := `
		INSERT INTO payment_history (id, payment_id, payment_status, total_amount, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var reason sql.NullString
	if history.Reason != "" {
		reason = sql.NullString{String: history.Reason, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		history.ID,
		history.PaymentID,
		history.Status,
		history.Amount,
		reason,
		history.OccurredAt,
	)

	return err
}

// ListByPaymentID retrieves all history rows for a payment, newest first.
func (r *HistoryRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.PaymentHistory, error) {
	query := `
		SELECT id, payment_id, payment_status, total_amount, reason, occurred_at
		FROM payment_history
		WHERE payment_id = $1
		ORDER BY occurred_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistories(rows)
}

// Search retrieves a page of history rows matching the filter, sorted by
// occurred_at descending.
func (r *HistoryRepository) Search(ctx context.Context, filter repository.HistoryFilter, limit, offset int) ([]*domain.PaymentHistory, error) {
	where, args := buildHistoryWhere(filter)

	query := fmt.Sprintf(`
		SELECT h.id, h.payment_id, h.payment_status, h.total_amount, h.reason, h.occurred_at
		FROM payment_history h
		JOIN payment p ON p.id = h.payment_id
		%s
		ORDER BY h.occurred_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistories(rows)
}

// Count returns the total number of rows matching the filter.
func (r *HistoryRepository) Count(ctx context.Context, filter repository.HistoryFilter) (int64, error) {
	where, args := buildHistoryWhere(filter)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM payment_history h
		JOIN payment p ON p.id = h.payment_id
		%s
	`, where)

	var count int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// buildHistoryWhere assembles the conjunctive WHERE clause for a filter.
// The payment type lives on the payment row, so the filter always joins
// against payment; soft-deleted payments stay visible in the ledger.
func buildHistoryWhere(filter repository.HistoryFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("p.payment_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("h.payment_status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("h.occurred_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("h.occurred_at <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanHistories(rows *sql.Rows) ([]*domain.PaymentHistory, error) {
	var histories []*domain.PaymentHistory
	for rows.Next() {
		var history domain.PaymentHistory
		var reason sql.NullString

		if err := rows.Scan(
			&history.ID,
			&history.PaymentID,
			&history.Status,
			&history.Amount,
			&reason,
			&history.OccurredAt,
		); err != nil {
			return nil, err
		}

		if reason.Valid {
			history.Reason = reason.String
		}

		histories = append(histories, &history)
	}

	return histories, rows.Err()
}

// Ensure HistoryRepository implements repository.HistoryRepository.
var _ repository.HistoryRepository = (*HistoryRepository)(nil)
