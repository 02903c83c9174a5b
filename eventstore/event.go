package eventstore

import (
	"context"
	"time"

	"github.com/sequentio/sequent/envelope"
)

// PersistedEvent is one immutable row in the event log.
type PersistedEvent struct {
	// GlobalSequence is the event's position in the tenant-wide event stream.
	// It is strictly increasing across all of the tenant's aggregates and is
	// assigned by the store at append time.
	GlobalSequence uint64

	// Sequence is the event's position within its aggregate's stream. It is
	// gap-free and strictly increasing from 1, assigned by the store.
	Sequence uint64

	// TenantID is the partition key. All queries and uniqueness constraints
	// are scoped by tenant.
	TenantID string

	// AggregateID identifies the aggregate instance that produced the event.
	// It doubles as the identifier of the aggregate's event stream.
	AggregateID string

	// AggregateType identifies the kind of aggregate.
	AggregateType string

	// ExpectedVersion is the version the writer believed was current when it
	// issued the append.
	ExpectedVersion Version

	// RecordedAt is the wall-clock time of persistence, in UTC.
	RecordedAt time.Time

	// Envelope contains the event's payload and meta-data.
	Envelope *envelope.Envelope
}

// ID returns the ID of the event.
func (ev *PersistedEvent) ID() string {
	return ev.Envelope.EventID
}

// Version returns the revision of the aggregate stream as of this event.
func (ev *PersistedEvent) Version() Version {
	return VersionOf(ev.Sequence)
}

// Result is a cursor over an ordered set of events loaded from a store.
//
// Result values are not safe for concurrent use.
type Result interface {
	// Next returns the next event in the result.
	//
	// It returns false if there are no more events in the result.
	Next(ctx context.Context) (PersistedEvent, bool, error)

	// Close closes the cursor.
	Close() error
}
