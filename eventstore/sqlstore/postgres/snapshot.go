package postgres

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/internal/x/sqlx"
)

// UpsertSnapshot saves a snapshot, replacing any existing snapshot for the
// same aggregate.
func (driver) UpsertSnapshot(
	ctx context.Context,
	db *sql.DB,
	snap eventstore.Snapshot,
) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO sequent.snapshot (
				tenant_id,
				aggregate_id,
				aggregate_type,
				last_sequence,
				media_type,
				data,
				taken_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7
			) ON CONFLICT (tenant_id, aggregate_id) DO UPDATE SET
				aggregate_type = $3,
				last_sequence = $4,
				media_type = $5,
				data = $6,
				taken_at = $7`,
		snap.TenantID,
		snap.AggregateID,
		snap.AggregateType,
		snap.LastSequence,
		snap.MediaType,
		snap.Data,
		sqlx.MarshalTime(snap.TakenAt),
	)

	return err
}

// SelectSnapshot selects an aggregate's snapshot. It returns false if no
// snapshot exists.
func (driver) SelectSnapshot(
	ctx context.Context,
	db *sql.DB,
	tenantID, aggregateID string,
) (eventstore.Snapshot, bool, error) {
	row := db.QueryRowContext(
		ctx,
		`SELECT
			tenant_id,
			aggregate_id,
			aggregate_type,
			last_sequence,
			media_type,
			data,
			taken_at
		FROM sequent.snapshot
		WHERE tenant_id = $1
		AND aggregate_id = $2`,
		tenantID,
		aggregateID,
	)

	var (
		snap    eventstore.Snapshot
		takenAt []byte
	)

	err := row.Scan(
		&snap.TenantID,
		&snap.AggregateID,
		&snap.AggregateType,
		&snap.LastSequence,
		&snap.MediaType,
		&snap.Data,
		&takenAt,
	)
	if err == sql.ErrNoRows {
		return eventstore.Snapshot{}, false, nil
	}
	if err != nil {
		return eventstore.Snapshot{}, false, err
	}

	snap.TakenAt = sqlx.UnmarshalTime(takenAt)

	return snap, true, nil
}
