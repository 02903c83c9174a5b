package sqlstore

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// Driver is used to interface with the underlying SQL database.
type Driver interface {
	// IsCompatibleWith returns nil if this driver can be used with db.
	IsCompatibleWith(ctx context.Context, db *sql.DB) error

	// Begin starts a transaction for use by an append.
	Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error)

	// IsUniqueViolation returns true if err was caused by a storage-level
	// uniqueness constraint violation.
	IsUniqueViolation(err error) bool

	// CreateSchema creates any SQL schema elements required by the driver.
	CreateSchema(ctx context.Context, db *sql.DB) error

	// DropSchema removes any SQL schema elements created by CreateSchema().
	DropSchema(ctx context.Context, db *sql.DB) error

	// SelectCurrentSequence selects the highest sequence number in an
	// aggregate's stream, or zero if the stream has no events.
	SelectCurrentSequence(
		ctx context.Context,
		db sqlx.DB,
		tenantID, aggregateID string,
	) (uint64, error)

	// UpdateGlobalSequence advances the tenant's global sequence by n and
	// returns the highest global sequence value of the reservation.
	UpdateGlobalSequence(
		ctx context.Context,
		tx *sql.Tx,
		tenantID string,
		n uint64,
	) (uint64, error)

	// InsertEvent saves an event with pre-assigned sequence numbers.
	InsertEvent(
		ctx context.Context,
		tx *sql.Tx,
		ev *eventstore.PersistedEvent,
	) error

	// SelectEvents selects an aggregate's events with sequence numbers in
	// the range [from, to], ascending by sequence number. A to of zero
	// means "unbounded".
	SelectEvents(
		ctx context.Context,
		db *sql.DB,
		tenantID, aggregateID string,
		from, to uint64,
	) (*sql.Rows, error)

	// SelectEventsByGlobalSequence selects up to limit of the tenant's
	// events with a global sequence of fromGlobal or greater, ascending by
	// global sequence.
	SelectEventsByGlobalSequence(
		ctx context.Context,
		db *sql.DB,
		tenantID string,
		fromGlobal uint64,
		limit int,
	) (*sql.Rows, error)

	// SelectMaxGlobalSequence selects the tenant's global sequence
	// high-water mark, or zero if the tenant has no events.
	SelectMaxGlobalSequence(
		ctx context.Context,
		db *sql.DB,
		tenantID string,
	) (uint64, error)

	// ScanEvent scans the next event from a row-set returned by
	// SelectEvents() or SelectEventsByGlobalSequence().
	ScanEvent(
		rows *sql.Rows,
		ev *eventstore.PersistedEvent,
	) error

	// UpsertSnapshot saves a snapshot, replacing any existing snapshot for
	// the same aggregate.
	UpsertSnapshot(
		ctx context.Context,
		db *sql.DB,
		snap eventstore.Snapshot,
	) error

	// SelectSnapshot selects an aggregate's snapshot. It returns false if
	// no snapshot exists.
	SelectSnapshot(
		ctx context.Context,
		db *sql.DB,
		tenantID, aggregateID string,
	) (eventstore.Snapshot, bool, error)
}
