package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// Driver is an implementation of sqlstore.Driver for PostgreSQL.
var Driver errorConverter

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	// Verify that we're using PostgreSQL and that $1-style placeholders are
	// supported.
	return db.QueryRowContext(
		ctx,
		`SELECT pg_backend_pid() WHERE 1 = $1`,
		1,
	).Err()
}

// Begin starts a transaction.
func (driver) Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	return db.BeginTx(ctx, nil)
}

// IsUniqueViolation returns true if err was caused by a PostgreSQL unique
// constraint violation.
func (driver) IsUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == "23505"
}

// CreateSchema creates any SQL schema elements required by the driver.
func (driver) CreateSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	tx := sqlx.Begin(ctx, db)
	defer tx.Rollback() // nolint:errcheck

	sqlx.Exec(ctx, tx, `CREATE SCHEMA IF NOT EXISTS sequent`)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE sequent.global_sequence (
			tenant_id   TEXT NOT NULL PRIMARY KEY,
			last_global BIGINT NOT NULL DEFAULT 0
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE sequent.event (
			tenant_id        TEXT NOT NULL,
			aggregate_id     TEXT NOT NULL,
			sequence         BIGINT NOT NULL,
			global_sequence  BIGINT NOT NULL,
			aggregate_type   TEXT NOT NULL,
			expected_version BIGINT,
			event_id         TEXT NOT NULL,
			event_type       TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			recorded_at      TEXT NOT NULL,
			media_type       TEXT NOT NULL,
			data             BYTEA NOT NULL,
			metadata         BYTEA,

			PRIMARY KEY (tenant_id, aggregate_id, sequence),
			UNIQUE (tenant_id, global_sequence)
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE INDEX event_by_id ON sequent.event (
			event_id
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE sequent.snapshot (
			tenant_id      TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			last_sequence  BIGINT NOT NULL,
			media_type     TEXT NOT NULL,
			data           BYTEA NOT NULL,
			taken_at       TEXT NOT NULL,

			PRIMARY KEY (tenant_id, aggregate_id)
		)`,
	)

	return tx.Commit()
}

// DropSchema removes any SQL schema elements created by CreateSchema().
func (driver) DropSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS sequent CASCADE`)
	return err
}
