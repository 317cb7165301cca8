package repository

import (
	"context"

	"paycore/internal/domain"
)

// OutboxRepository defines the persistence operations for the durable
// event outbox.
type OutboxRepository interface {
	// Enqueue persists an outbox message. Called within the same
	// transaction as the state change the message describes.
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error

	// FetchUnpublished retrieves up to limit unpublished messages, oldest
	// first, locking them against concurrent dispatchers.
	FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// MarkPublished records that a message has been delivered.
	MarkPublished(ctx context.Context, id string) error
}
