// Package sqlledger provides a ledger.Ledger implementation that persists
// records in an SQL database.
//
// Database-system-specific queries are provided by a Driver; see the postgres
// and sqlite subpackages.
package sqlledger

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/ledger"
)

// Driver is an interface for database-system-specific SQL queries.
type Driver interface {
	// IsCompatibleWith returns nil if this driver can be used with db.
	IsCompatibleWith(ctx context.Context, db *sql.DB) error

	// CreateSchema creates any SQL schema elements required by the driver.
	CreateSchema(ctx context.Context, db *sql.DB) error

	// DropSchema removes any SQL schema elements created by CreateSchema().
	DropSchema(ctx context.Context, db *sql.DB) error

	// InsertRecord saves a ledger record. Inserting a record whose
	// (event, processor) pair is already present has no effect and is not an
	// error.
	InsertRecord(ctx context.Context, db *sql.DB, rec ledger.Record) error

	// SelectExists returns true if a record with the given (event, processor)
	// pair exists.
	SelectExists(
		ctx context.Context,
		db *sql.DB,
		eventID, processorID string,
	) (bool, error)
}

// Ledger is an implementation of ledger.Ledger that persists records in an
// SQL database.
type Ledger struct {
	// DB is the SQL database containing the ledger. The ledger does not own
	// the database handle; closing the ledger's database is the caller's
	// responsibility.
	DB *sql.DB

	// Driver performs the database-system-specific SQL queries.
	Driver Driver
}

var _ ledger.Ledger = (*Ledger)(nil)

// IsProcessed returns true if the event has already been processed by the
// given processor.
func (l *Ledger) IsProcessed(
	ctx context.Context,
	eventID, processorID string,
) (bool, error) {
	return l.Driver.SelectExists(ctx, l.DB, eventID, processorID)
}

// Record marks an event as processed by a processor. An existing record for
// the same pair is retained.
func (l *Ledger) Record(ctx context.Context, rec ledger.Record) error {
	return l.Driver.InsertRecord(ctx, l.DB, rec)
}
