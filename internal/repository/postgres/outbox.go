package postgres

import (
	"context"
	"database/sql"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// OutboxRepository is a PostgreSQL implementation of repository.OutboxRepository.
type OutboxRepository struct {
	q Querier
}

// NewOutboxRepository creates a new PostgreSQL outbox repository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{q: db}
}

// NewOutboxRepositoryWithTx creates an outbox repository using a transaction.
func NewOutboxRepositoryWithTx(tx *sql.Tx) *OutboxRepository {
	return &OutboxRepository{q: tx}
}

// Enqueue persists an outbox message.
func (r *OutboxRepository) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	query := `
		INSERT INTO payment_outbox (id, event_name, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		msg.ID,
		msg.EventName,
		[]byte(msg.Payload),
		msg.CreatedAt,
	)

	return err
}

// FetchUnpublished retrieves up to limit unpublished messages, oldest first.
// SKIP LOCKED keeps concurrent dispatchers off the same rows.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	query := `
		SELECT id, event_name, payload, created_at
		FROM payment_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		var payload []byte

		if err := rows.Scan(&msg.ID, &msg.EventName, &payload, &msg.CreatedAt); err != nil {
			return nil, err
		}

		msg.Payload = payload
		msgs = append(msgs, &msg)
	}

	return msgs, rows.Err()
}

// MarkPublished records that a message has been delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	query := `UPDATE payment_outbox SET published_at = now() WHERE id = $1 AND published_at IS NULL`

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

// Ensure OutboxRepository implements repository.OutboxRepository.
var _ repository.OutboxRepository = (*OutboxRepository)(nil)
