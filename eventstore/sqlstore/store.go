package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
)

// Store is an implementation of eventstore.Store that persists events in an
// SQL database.
type Store struct {
	// DB is the SQL database containing the event log. The store does not
	// own the database handle; closing the store does not close it.
	DB *sql.DB

	// Driver performs the database-system-specific SQL queries.
	Driver Driver

	// Now is a function used to get the current time for RecordedAt values.
	// If it is nil, time.Now() is used.
	Now func() time.Time
}

var _ eventstore.Store = (*Store)(nil)

// AppendEvents appends events to an aggregate's stream.
//
// The aggregate's current version is read inside the same transaction as the
// insert; a mismatch with expected aborts the append with a ConflictError.
// A uniqueness violation surfaced by the database during the insert indicates
// a race lost between the version check and the insert, and is re-reported as
// a ConflictError carrying the freshly observed actual version. There is no
// other concurrency-control mechanism and no internal retry.
func (s *Store) AppendEvents(
	ctx context.Context,
	tenantID, aggregateType, aggregateID string,
	expected eventstore.Version,
	envelopes []*envelope.Envelope,
) ([]eventstore.PersistedEvent, error) {
	if err := eventstore.ValidateAppend(
		tenantID,
		aggregateType,
		aggregateID,
		envelopes,
	); err != nil {
		return nil, err
	}

	events, err := s.append(
		ctx,
		tenantID,
		aggregateType,
		aggregateID,
		expected,
		envelopes,
	)

	if err != nil && s.Driver.IsUniqueViolation(err) {
		actual, verr := s.CurrentVersion(ctx, tenantID, aggregateID)
		if verr != nil {
			return nil, verr
		}

		return nil, eventstore.ConflictError{
			TenantID:    tenantID,
			AggregateID: aggregateID,
			Expected:    expected,
			Actual:      actual,
		}
	}

	return events, err
}

// append inserts the events in a single transaction.
func (s *Store) append(
	ctx context.Context,
	tenantID, aggregateType, aggregateID string,
	expected eventstore.Version,
	envelopes []*envelope.Envelope,
) ([]eventstore.PersistedEvent, error) {
	tx, err := s.Driver.Begin(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // nolint:errcheck

	seq, err := s.Driver.SelectCurrentSequence(ctx, tx, tenantID, aggregateID)
	if err != nil {
		return nil, err
	}

	if actual := eventstore.VersionOf(seq); !eventstore.VersionsEqual(expected, actual) {
		return nil, eventstore.ConflictError{
			TenantID:    tenantID,
			AggregateID: aggregateID,
			Expected:    expected,
			Actual:      actual,
		}
	}

	n := uint64(len(envelopes))

	top, err := s.Driver.UpdateGlobalSequence(ctx, tx, tenantID, n)
	if err != nil {
		return nil, err
	}

	now := s.now()
	events := make([]eventstore.PersistedEvent, 0, n)

	for i, env := range envelopes {
		ev := eventstore.PersistedEvent{
			GlobalSequence:  top - n + uint64(i) + 1,
			Sequence:        seq + uint64(i) + 1,
			TenantID:        tenantID,
			AggregateID:     aggregateID,
			AggregateType:   aggregateType,
			ExpectedVersion: expected,
			RecordedAt:      now,
			Envelope:        env,
		}

		if err := s.Driver.InsertEvent(ctx, tx, &ev); err != nil {
			return nil, err
		}

		events = append(events, ev)
	}

	return events, tx.Commit()
}

// Events returns the events of one aggregate, ascending by sequence number,
// starting at from (inclusive).
func (s *Store) Events(
	ctx context.Context,
	tenantID, aggregateID string,
	from uint64,
) (eventstore.Result, error) {
	return s.EventsInRange(ctx, tenantID, aggregateID, from, 0)
}

// EventsInRange returns the events of one aggregate with sequence numbers in
// the range [from, to], ascending by sequence number.
func (s *Store) EventsInRange(
	ctx context.Context,
	tenantID, aggregateID string,
	from, to uint64,
) (eventstore.Result, error) {
	rows, err := s.Driver.SelectEvents(
		ctx,
		s.DB,
		tenantID,
		aggregateID,
		from,
		to,
	)
	if err != nil {
		return nil, err
	}

	return &eventResult{
		rows:   rows,
		driver: s.Driver,
	}, nil
}

// CurrentVersion returns the version of an aggregate's stream.
func (s *Store) CurrentVersion(
	ctx context.Context,
	tenantID, aggregateID string,
) (eventstore.Version, error) {
	seq, err := s.Driver.SelectCurrentSequence(ctx, s.DB, tenantID, aggregateID)
	if err != nil {
		return nil, err
	}

	return eventstore.VersionOf(seq), nil
}

// ReadFrom reads a batch of the tenant's events across all aggregates,
// strictly ascending by global sequence, starting at fromGlobal (inclusive).
func (s *Store) ReadFrom(
	ctx context.Context,
	tenantID string,
	fromGlobal uint64,
	batchSize int,
) ([]eventstore.PersistedEvent, error) {
	rows, err := s.Driver.SelectEventsByGlobalSequence(
		ctx,
		s.DB,
		tenantID,
		fromGlobal,
		batchSize,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []eventstore.PersistedEvent

	for rows.Next() {
		ev := eventstore.PersistedEvent{
			Envelope: &envelope.Envelope{},
		}

		if err := s.Driver.ScanEvent(rows, &ev); err != nil {
			return nil, err
		}

		batch = append(batch, ev)
	}

	return batch, rows.Err()
}

// MaxGlobalSequence returns the tenant's current global sequence high-water
// mark.
func (s *Store) MaxGlobalSequence(
	ctx context.Context,
	tenantID string,
) (uint64, error) {
	return s.Driver.SelectMaxGlobalSequence(ctx, s.DB, tenantID)
}

// SaveSnapshot saves a snapshot of an aggregate's state, replacing any
// existing snapshot for the same aggregate.
func (s *Store) SaveSnapshot(ctx context.Context, snap eventstore.Snapshot) error {
	return s.Driver.UpsertSnapshot(ctx, s.DB, snap)
}

// LoadSnapshot loads the snapshot of an aggregate's state.
func (s *Store) LoadSnapshot(
	ctx context.Context,
	tenantID, aggregateID string,
) (eventstore.Snapshot, bool, error) {
	return s.Driver.SelectSnapshot(ctx, s.DB, tenantID, aggregateID)
}

// Close closes the store. The database handle is owned by the caller and is
// left open.
func (s *Store) Close() error {
	return nil
}

func (s *Store) now() time.Time {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	return now().UTC()
}
