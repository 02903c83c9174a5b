package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// convertContextErrors converts PostgreSQL "query_canceled" errors into a
// context.Canceled or DeadlineExceeded error.
//
// The "pq" driver prefers returning its own error if the context is canceled
// after a query has already started.
func convertContextErrors(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		if strings.Contains(err.Error(), "canceling statement due to user request") {
			return ctx.Err()
		}
	}

	return err
}

// errorConverter is an implementation of sqlstore.Driver that decorates the
// PostgreSQL driver in order to convert native "query_canceled" errors into
// regular context.Canceled / DeadlineExceeded errors.
//
// The error conversion is implemented this way so that conversions don't get
// missed when new methods are added to the sqlstore.Driver interface.
type errorConverter struct {
	d driver
}

func (d errorConverter) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	err := d.d.IsCompatibleWith(ctx, db)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := d.d.Begin(ctx, db)
	return tx, convertContextErrors(ctx, err)
}

func (d errorConverter) IsUniqueViolation(err error) bool {
	return d.d.IsUniqueViolation(err)
}

func (d errorConverter) CreateSchema(ctx context.Context, db *sql.DB) error {
	err := d.d.CreateSchema(ctx, db)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) DropSchema(ctx context.Context, db *sql.DB) error {
	err := d.d.DropSchema(ctx, db)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) SelectCurrentSequence(
	ctx context.Context,
	db sqlx.DB,
	tenantID, aggregateID string,
) (uint64, error) {
	seq, err := d.d.SelectCurrentSequence(ctx, db, tenantID, aggregateID)
	return seq, convertContextErrors(ctx, err)
}

func (d errorConverter) UpdateGlobalSequence(
	ctx context.Context,
	tx *sql.Tx,
	tenantID string,
	n uint64,
) (uint64, error) {
	g, err := d.d.UpdateGlobalSequence(ctx, tx, tenantID, n)
	return g, convertContextErrors(ctx, err)
}

func (d errorConverter) InsertEvent(
	ctx context.Context,
	tx *sql.Tx,
	ev *eventstore.PersistedEvent,
) error {
	err := d.d.InsertEvent(ctx, tx, ev)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) SelectEvents(
	ctx context.Context,
	db *sql.DB,
	tenantID, aggregateID string,
	from, to uint64,
) (*sql.Rows, error) {
	rows, err := d.d.SelectEvents(ctx, db, tenantID, aggregateID, from, to)
	return rows, convertContextErrors(ctx, err)
}

func (d errorConverter) SelectEventsByGlobalSequence(
	ctx context.Context,
	db *sql.DB,
	tenantID string,
	fromGlobal uint64,
	limit int,
) (*sql.Rows, error) {
	rows, err := d.d.SelectEventsByGlobalSequence(ctx, db, tenantID, fromGlobal, limit)
	return rows, convertContextErrors(ctx, err)
}

func (d errorConverter) SelectMaxGlobalSequence(
	ctx context.Context,
	db *sql.DB,
	tenantID string,
) (uint64, error) {
	g, err := d.d.SelectMaxGlobalSequence(ctx, db, tenantID)
	return g, convertContextErrors(ctx, err)
}

func (d errorConverter) ScanEvent(
	rows *sql.Rows,
	ev *eventstore.PersistedEvent,
) error {
	return d.d.ScanEvent(rows, ev)
}

func (d errorConverter) UpsertSnapshot(
	ctx context.Context,
	db *sql.DB,
	snap eventstore.Snapshot,
) error {
	err := d.d.UpsertSnapshot(ctx, db, snap)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) SelectSnapshot(
	ctx context.Context,
	db *sql.DB,
	tenantID, aggregateID string,
) (eventstore.Snapshot, bool, error) {
	snap, ok, err := d.d.SelectSnapshot(ctx, db, tenantID, aggregateID)
	return snap, ok, convertContextErrors(ctx, err)
}
