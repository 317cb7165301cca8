package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"paycore/internal/config"
)

// NewDatabase creates a new PostgreSQL connection pool. If nrApp is
// provided, the New Relic instrumented driver is used for automatic SQL
// tracing.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driver := "postgres"
	if nrApp != nil {
		driver = "nrpostgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS payment (
			id             UUID PRIMARY KEY,
			order_number   TEXT NOT NULL,
			payment_type   TEXT NOT NULL,
			payment_key    TEXT,
			payment_status TEXT NOT NULL,
			total_amount   BIGINT NOT NULL CHECK (total_amount >= 0),
			point_used     BIGINT NOT NULL DEFAULT 0 CHECK (point_used >= 0),
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			deleted_at     TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_order_number
			ON payment (order_number) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_type_key
			ON payment (payment_type, payment_key) WHERE payment_key IS NOT NULL AND deleted_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS payment_history (
			id             UUID PRIMARY KEY,
			payment_id     UUID NOT NULL REFERENCES payment (id),
			payment_status TEXT NOT NULL,
			total_amount   BIGINT NOT NULL,
			reason         TEXT,
			occurred_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_payment_history_occurred_at
			ON payment_history (occurred_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ix_payment_history_payment_id
			ON payment_history (payment_id)`,
		`CREATE TABLE IF NOT EXISTS payment_outbox (
			id           UUID PRIMARY KEY,
			event_name   TEXT NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			published_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS ix_payment_outbox_unpublished
			ON payment_outbox (created_at) WHERE published_at IS NULL`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
