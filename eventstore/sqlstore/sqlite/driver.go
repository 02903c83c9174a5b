//go:build cgo
// +build cgo

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// Driver is an implementation of sqlstore.Driver for SQLite.
var Driver = driver{}

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	// Verify that we're using SQLite and that $1-style placeholders are
	// supported.
	return db.QueryRowContext(
		ctx,
		`SELECT sqlite_version() WHERE 1 = $1`,
		1,
	).Err()
}

// Begin starts a transaction.
func (driver) Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	return db.BeginTx(ctx, nil)
}

// IsUniqueViolation returns true if err was caused by an SQLite uniqueness
// constraint violation.
func (driver) IsUniqueViolation(err error) bool {
	var serr sqlite3.Error

	return errors.As(err, &serr) &&
		(serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// CreateSchema creates any SQL schema elements required by the driver.
func (driver) CreateSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	tx := sqlx.Begin(ctx, db)
	defer tx.Rollback() // nolint:errcheck

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE global_sequence (
			tenant_id   TEXT NOT NULL PRIMARY KEY,
			last_global INTEGER NOT NULL DEFAULT 0
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE event (
			tenant_id        TEXT NOT NULL,
			aggregate_id     TEXT NOT NULL,
			sequence         INTEGER NOT NULL,
			global_sequence  INTEGER NOT NULL,
			aggregate_type   TEXT NOT NULL,
			expected_version INTEGER,
			event_id         TEXT NOT NULL,
			event_type       TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			recorded_at      TEXT NOT NULL,
			media_type       TEXT NOT NULL,
			data             BLOB NOT NULL,
			metadata         BLOB,

			PRIMARY KEY (tenant_id, aggregate_id, sequence),
			UNIQUE (tenant_id, global_sequence)
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE INDEX event_by_id ON event (
			event_id
		)`,
	)

	sqlx.Exec(
		ctx,
		tx,
		`CREATE TABLE snapshot (
			tenant_id      TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			last_sequence  INTEGER NOT NULL,
			media_type     TEXT NOT NULL,
			data           BLOB NOT NULL,
			taken_at       TEXT NOT NULL,

			PRIMARY KEY (tenant_id, aggregate_id)
		)`,
	)

	return tx.Commit()
}

// DropSchema removes any SQL schema elements created by CreateSchema().
func (driver) DropSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(ctx, db, `DROP TABLE IF EXISTS global_sequence`)
	sqlx.Exec(ctx, db, `DROP TABLE IF EXISTS event`)
	sqlx.Exec(ctx, db, `DROP TABLE IF EXISTS snapshot`)

	return nil
}
