//go:build cgo
// +build cgo

package sqlite

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/eventstore/sqlstore"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// SelectCurrentSequence selects the highest sequence number in an aggregate's
// stream, or zero if the stream has no events.
func (driver) SelectCurrentSequence(
	ctx context.Context,
	db sqlx.DB,
	tenantID, aggregateID string,
) (_ uint64, err error) {
	defer sqlx.Recover(&err)

	return sqlx.QueryUint64(
		ctx,
		db,
		`SELECT COALESCE(MAX(sequence), 0)
		FROM event
		WHERE tenant_id = $1
		AND aggregate_id = $2`,
		tenantID,
		aggregateID,
	), nil
}

// UpdateGlobalSequence advances the tenant's global sequence by n and returns
// the highest global sequence value of the reservation.
//
// SQLite serializes writers, so the read-back after the update is stable for
// the lifetime of the transaction.
func (driver) UpdateGlobalSequence(
	ctx context.Context,
	tx *sql.Tx,
	tenantID string,
	n uint64,
) (_ uint64, err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		`INSERT INTO global_sequence (
			tenant_id
		) VALUES (
			$1
		) ON CONFLICT (tenant_id) DO NOTHING`,
		tenantID,
	)

	sqlx.Exec(
		ctx,
		tx,
		`UPDATE global_sequence SET
			last_global = last_global + $1
		WHERE tenant_id = $2`,
		n,
		tenantID,
	)

	return sqlx.QueryUint64(
		ctx,
		tx,
		`SELECT last_global
		FROM global_sequence
		WHERE tenant_id = $1`,
		tenantID,
	), nil
}

// InsertEvent saves an event with pre-assigned sequence numbers.
func (driver) InsertEvent(
	ctx context.Context,
	tx *sql.Tx,
	ev *eventstore.PersistedEvent,
) error {
	md, err := sqlstore.MarshalMetadata(ev.Envelope.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO event (
				tenant_id,
				aggregate_id,
				sequence,
				global_sequence,
				aggregate_type,
				expected_version,
				event_id,
				event_type,
				created_at,
				recorded_at,
				media_type,
				data,
				metadata
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
			)`,
		ev.TenantID,
		ev.AggregateID,
		ev.Sequence,
		ev.GlobalSequence,
		ev.AggregateType,
		sqlstore.MarshalVersion(ev.ExpectedVersion),
		ev.Envelope.EventID,
		ev.Envelope.EventType,
		sqlx.MarshalTime(ev.Envelope.CreatedAt),
		sqlx.MarshalTime(ev.RecordedAt),
		ev.Envelope.MediaType,
		ev.Envelope.Data,
		md,
	)

	return err
}

// SelectEvents selects an aggregate's events with sequence numbers in the
// range [from, to], ascending by sequence number. A to of zero means
// "unbounded".
func (driver) SelectEvents(
	ctx context.Context,
	db *sql.DB,
	tenantID, aggregateID string,
	from, to uint64,
) (*sql.Rows, error) {
	if to == 0 {
		to = ^uint64(0) >> 1
	}

	return db.QueryContext(
		ctx,
		selectEventColumns+
			` WHERE e.tenant_id = $1
			AND e.aggregate_id = $2
			AND e.sequence >= $3
			AND e.sequence <= $4
			ORDER BY e.sequence`,
		tenantID,
		aggregateID,
		from,
		to,
	)
}

// SelectEventsByGlobalSequence selects up to limit of the tenant's events
// with a global sequence of fromGlobal or greater, ascending by global
// sequence.
func (driver) SelectEventsByGlobalSequence(
	ctx context.Context,
	db *sql.DB,
	tenantID string,
	fromGlobal uint64,
	limit int,
) (*sql.Rows, error) {
	return db.QueryContext(
		ctx,
		selectEventColumns+
			` WHERE e.tenant_id = $1
			AND e.global_sequence >= $2
			ORDER BY e.global_sequence
			LIMIT $3`,
		tenantID,
		fromGlobal,
		limit,
	)
}

// SelectMaxGlobalSequence selects the tenant's global sequence high-water
// mark, or zero if the tenant has no events.
func (driver) SelectMaxGlobalSequence(
	ctx context.Context,
	db *sql.DB,
	tenantID string,
) (_ uint64, err error) {
	defer sqlx.Recover(&err)

	v, _ := sqlx.TryQueryUint64(
		ctx,
		db,
		`SELECT last_global
		FROM global_sequence
		WHERE tenant_id = $1`,
		tenantID,
	)

	return v, nil
}

// ScanEvent scans the next event from a row-set returned by SelectEvents()
// or SelectEventsByGlobalSequence().
func (driver) ScanEvent(
	rows *sql.Rows,
	ev *eventstore.PersistedEvent,
) (err error) {
	defer sqlx.Recover(&err)

	var (
		expected            sql.NullInt64
		createdAt, recorded []byte
		metadata            []byte
	)

	sqlx.Must(
		rows.Scan(
			&ev.TenantID,
			&ev.AggregateID,
			&ev.Sequence,
			&ev.GlobalSequence,
			&ev.AggregateType,
			&expected,
			&ev.Envelope.EventID,
			&ev.Envelope.EventType,
			&createdAt,
			&recorded,
			&ev.Envelope.MediaType,
			&ev.Envelope.Data,
			&metadata,
		),
	)

	ev.ExpectedVersion = sqlstore.UnmarshalVersion(expected)
	ev.Envelope.TenantID = ev.TenantID
	ev.Envelope.CreatedAt = sqlx.UnmarshalTime(createdAt)
	ev.RecordedAt = sqlx.UnmarshalTime(recorded)

	ev.Envelope.Metadata, err = sqlstore.UnmarshalMetadata(metadata)

	return err
}

// selectEventColumns is the column list shared by the event queries, in the
// order expected by ScanEvent().
const selectEventColumns = `SELECT
	e.tenant_id,
	e.aggregate_id,
	e.sequence,
	e.global_sequence,
	e.aggregate_type,
	e.expected_version,
	e.event_id,
	e.event_type,
	e.created_at,
	e.recorded_at,
	e.media_type,
	e.data,
	e.metadata
FROM event AS e`
