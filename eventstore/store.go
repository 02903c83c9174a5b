package eventstore

import (
	"context"

	"github.com/sequentio/sequent/envelope"
)

// Store is an interface for reading and appending to tenant-partitioned
// aggregate event streams.
//
// The event log and snapshot table are owned exclusively by the store; no
// other component writes to them.
type Store interface {
	// AppendEvents appends events to an aggregate's stream.
	//
	// expected is the version the caller believes the stream is at. If it
	// does not match the stream's actual version, no events are written and
	// a ConflictError is returned.
	//
	// On success it returns the persisted events in the order they were
	// appended, with their assigned sequence numbers and tenant-wide global
	// sequence positions.
	AppendEvents(
		ctx context.Context,
		tenantID, aggregateType, aggregateID string,
		expected Version,
		envelopes []*envelope.Envelope,
	) ([]PersistedEvent, error)

	// Events returns the events of one aggregate, ascending by sequence
	// number, starting at from (inclusive).
	Events(
		ctx context.Context,
		tenantID, aggregateID string,
		from uint64,
	) (Result, error)

	// EventsInRange returns the events of one aggregate with sequence numbers
	// in the range [from, to], ascending by sequence number.
	EventsInRange(
		ctx context.Context,
		tenantID, aggregateID string,
		from, to uint64,
	) (Result, error)

	// CurrentVersion returns the version of an aggregate's stream.
	CurrentVersion(
		ctx context.Context,
		tenantID, aggregateID string,
	) (Version, error)

	// ReadFrom reads a batch of the tenant's events across all aggregates,
	// strictly ascending by global sequence, starting at fromGlobal
	// (inclusive) and limited to batchSize events.
	//
	// This is the primitive a catch-up consumer polls repeatedly, advancing
	// fromGlobal to the last seen global sequence plus one.
	ReadFrom(
		ctx context.Context,
		tenantID string,
		fromGlobal uint64,
		batchSize int,
	) ([]PersistedEvent, error)

	// MaxGlobalSequence returns the tenant's current global sequence
	// high-water mark. It returns zero if the tenant has no events.
	MaxGlobalSequence(
		ctx context.Context,
		tenantID string,
	) (uint64, error)

	// SaveSnapshot saves a snapshot of an aggregate's state, replacing any
	// existing snapshot for the same aggregate.
	//
	// Snapshot persistence is independent of event append transactions.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// LoadSnapshot loads the snapshot of an aggregate's state. It returns
	// false if no snapshot exists.
	LoadSnapshot(
		ctx context.Context,
		tenantID, aggregateID string,
	) (Snapshot, bool, error)

	// Close closes the store.
	Close() error
}

// ValidateAppend checks the preconditions of an append operation. A violation
// indicates a programming error in the caller and is reported as a
// ValidationError, never as a concurrency conflict.
func ValidateAppend(
	tenantID, aggregateType, aggregateID string,
	envelopes []*envelope.Envelope,
) error {
	if tenantID == "" {
		return ValidationError{"tenant ID must not be empty"}
	}

	if aggregateType == "" {
		return ValidationError{"aggregate type must not be empty"}
	}

	if aggregateID == "" {
		return ValidationError{"aggregate ID must not be empty"}
	}

	if len(envelopes) == 0 {
		return ValidationError{"at least one event must be appended"}
	}

	seen := make(map[string]struct{}, len(envelopes))

	for _, env := range envelopes {
		if err := envelope.Validate(env); err != nil {
			return ValidationError{err.Error()}
		}

		if env.TenantID != tenantID {
			return ValidationError{
				"envelope " + env.EventID + " belongs to tenant '" +
					env.TenantID + "', expected '" + tenantID + "'",
			}
		}

		if _, ok := seen[env.EventID]; ok {
			return ValidationError{
				"envelope " + env.EventID + " appears more than once in the batch",
			}
		}

		seen[env.EventID] = struct{}{}
	}

	return nil
}
