package repository

import "context"

// TxRepos bundles the transaction-scoped repositories handed to a unit of
// work. All three share one database transaction.
type TxRepos struct {
	Payments  PaymentRepository
	Histories HistoryRepository
	Outbox    OutboxRepository
}

// TxRunner runs a unit of work inside a single database transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so a
// failing fn leaves no partial state behind.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}
