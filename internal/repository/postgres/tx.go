package postgres

import (
	"context"
	"database/sql"

	"paycore/internal/repository"
)

// TxRunner is a PostgreSQL implementation of repository.TxRunner.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a new transaction runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// InTx runs fn with transaction-scoped repositories, committing on success
// and rolling back on any error.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := repository.TxRepos{
		Payments:  NewPaymentRepositoryWithTx(tx),
		Histories: NewHistoryRepositoryWithTx(tx),
		Outbox:    NewOutboxRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	return tx.Commit()
}

// Ensure TxRunner implements repository.TxRunner.
var _ repository.TxRunner = (*TxRunner)(nil)
