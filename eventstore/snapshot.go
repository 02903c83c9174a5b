package eventstore

import "time"

// Snapshot is a point-in-time materialization of an aggregate's state.
//
// At most one snapshot exists per aggregate; saving a snapshot replaces any
// existing one. A snapshot is an optimization, not a source of truth: a crash
// between appending events and saving a snapshot is safe, because loading
// replays any events recorded after LastSequence on top of it.
type Snapshot struct {
	// TenantID is the partition key.
	TenantID string

	// AggregateID identifies the aggregate instance the snapshot belongs to.
	AggregateID string

	// AggregateType identifies the kind of aggregate.
	AggregateType string

	// LastSequence is the sequence number of the most recent event folded
	// into the snapshot.
	LastSequence uint64

	// MediaType is the MIME media-type of Data.
	MediaType string

	// Data is the marshaled representation of the aggregate's state.
	Data []byte

	// TakenAt is the time at which the snapshot was taken.
	TakenAt time.Time
}
