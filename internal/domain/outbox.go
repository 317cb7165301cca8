package domain

import (
	"encoding/json"
	"time"
)

// OutboxMessage is a durable record of a domain event, written in the same
// transaction as the state change it describes and published by a
// dispatcher after that transaction commits.
type OutboxMessage struct {
	ID          string
	EventName   string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt time.Time // zero until the dispatcher has delivered it
}

// NewOutboxMessage serializes an event into an outbox row.
func NewOutboxMessage(id string, e Event) (*OutboxMessage, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		ID:        id,
		EventName: e.EventName(),
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}
