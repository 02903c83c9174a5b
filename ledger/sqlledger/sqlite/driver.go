// Package sqlite provides the SQLite driver for the SQL ledger.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/internal/x/sqlx"
	"github.com/sequentio/sequent/ledger"
)

// Driver is an implementation of sqlledger.Driver for SQLite.
var Driver driver

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	return db.QueryRowContext(
		ctx,
		`SELECT sqlite_version() WHERE 1 = $1`,
		1,
	).Err()
}

// CreateSchema creates any SQL schema elements required by the driver.
func (driver) CreateSchema(ctx context.Context, db *sql.DB) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE processed_event (
			event_id    TEXT NOT NULL,
			processor   TEXT NOT NULL,
			tenant_id   TEXT NOT NULL,
			recorded_at TEXT NOT NULL,

			PRIMARY KEY (event_id, processor)
		)`,
	)

	return nil
}

// DropSchema removes any SQL schema elements created by CreateSchema().
func (driver) DropSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS processed_event`)
	return err
}

// InsertRecord saves a ledger record, retaining any existing record for the
// same (event, processor) pair.
func (driver) InsertRecord(
	ctx context.Context,
	db *sql.DB,
	rec ledger.Record,
) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO processed_event (
				event_id,
				processor,
				tenant_id,
				recorded_at
			) VALUES (
				$1, $2, $3, $4
			) ON CONFLICT (event_id, processor) DO NOTHING`,
		rec.EventID,
		rec.ProcessorID,
		rec.TenantID,
		sqlx.MarshalTime(rec.RecordedAt),
	)

	return err
}

// SelectExists returns true if a record with the given (event, processor)
// pair exists.
func (driver) SelectExists(
	ctx context.Context,
	db *sql.DB,
	eventID, processorID string,
) (bool, error) {
	row := db.QueryRowContext(
		ctx,
		`SELECT EXISTS (
			SELECT 1
			FROM processed_event
			WHERE event_id = $1
			AND processor = $2
		)`,
		eventID,
		processorID,
	)

	var ok bool
	err := row.Scan(&ok)

	return ok, err
}
