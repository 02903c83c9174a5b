// Package memorystore provides an in-memory implementation of
// eventstore.Store.
//
// It is intended for testing. Events are held entirely in memory and are lost
// when the store is closed.
package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
)

// Store is an implementation of eventstore.Store that keeps events in memory.
type Store struct {
	// Now is a function used to get the current time for RecordedAt values.
	// If it is nil, time.Now() is used.
	Now func() time.Time

	m       sync.RWMutex
	tenants map[string]*tenant
}

// tenant holds one tenant's partition of the store.
type tenant struct {
	streams   map[string][]eventstore.PersistedEvent
	global    []eventstore.PersistedEvent
	snapshots map[string]eventstore.Snapshot
}

var _ eventstore.Store = (*Store)(nil)

// AppendEvents appends events to an aggregate's stream.
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

	s.m.Lock()
	defer s.m.Unlock()

	t := s.tenant(tenantID)
	stream := t.streams[aggregateID]
	seq := uint64(len(stream))

	if actual := eventstore.VersionOf(seq); !eventstore.VersionsEqual(expected, actual) {
		return nil, eventstore.ConflictError{
			TenantID:    tenantID,
			AggregateID: aggregateID,
			Expected:    expected,
			Actual:      actual,
		}
	}

	now := s.now()
	events := make([]eventstore.PersistedEvent, 0, len(envelopes))

	for i, env := range envelopes {
		ev := eventstore.PersistedEvent{
			GlobalSequence:  uint64(len(t.global)) + 1,
			Sequence:        seq + uint64(i) + 1,
			TenantID:        tenantID,
			AggregateID:     aggregateID,
			AggregateType:   aggregateType,
			ExpectedVersion: expected,
			RecordedAt:      now,
			Envelope:        env,
		}

		t.global = append(t.global, ev)
		events = append(events, ev)
	}

	t.streams[aggregateID] = append(stream, events...)

	return events, nil
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
	s.m.RLock()
	defer s.m.RUnlock()

	var events []eventstore.PersistedEvent

	if t, ok := s.tenants[tenantID]; ok {
		for _, ev := range t.streams[aggregateID] {
			if ev.Sequence < from {
				continue
			}

			if to != 0 && ev.Sequence > to {
				break
			}

			events = append(events, ev)
		}
	}

	return &sliceResult{events: events}, nil
}

// CurrentVersion returns the version of an aggregate's stream.
func (s *Store) CurrentVersion(
	ctx context.Context,
	tenantID, aggregateID string,
) (eventstore.Version, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	var seq uint64
	if t, ok := s.tenants[tenantID]; ok {
		seq = uint64(len(t.streams[aggregateID]))
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
	s.m.RLock()
	defer s.m.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}

	// Global sequences are dense and 1-based, so the batch can be sliced out
	// of the log directly.
	if fromGlobal < 1 {
		fromGlobal = 1
	}

	if fromGlobal > uint64(len(t.global)) {
		return nil, nil
	}

	batch := t.global[fromGlobal-1:]
	if batchSize > 0 && len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	result := make([]eventstore.PersistedEvent, len(batch))
	copy(result, batch)

	return result, nil
}

// MaxGlobalSequence returns the tenant's current global sequence high-water
// mark.
func (s *Store) MaxGlobalSequence(
	ctx context.Context,
	tenantID string,
) (uint64, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	if t, ok := s.tenants[tenantID]; ok {
		return uint64(len(t.global)), nil
	}

	return 0, nil
}

// SaveSnapshot saves a snapshot of an aggregate's state, replacing any
// existing snapshot for the same aggregate.
func (s *Store) SaveSnapshot(ctx context.Context, snap eventstore.Snapshot) error {
	s.m.Lock()
	defer s.m.Unlock()

	s.tenant(snap.TenantID).snapshots[snap.AggregateID] = snap

	return nil
}

// LoadSnapshot loads the snapshot of an aggregate's state. It returns false
// if no snapshot exists.
func (s *Store) LoadSnapshot(
	ctx context.Context,
	tenantID, aggregateID string,
) (eventstore.Snapshot, bool, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	if t, ok := s.tenants[tenantID]; ok {
		snap, ok := t.snapshots[aggregateID]
		return snap, ok, nil
	}

	return eventstore.Snapshot{}, false, nil
}

// Close closes the store, discarding its contents.
func (s *Store) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	s.tenants = nil

	return nil
}

// tenant returns the tenant's partition, creating it if necessary. The caller
// must hold a write lock.
func (s *Store) tenant(tenantID string) *tenant {
	t, ok := s.tenants[tenantID]
	if !ok {
		t = &tenant{
			streams:   map[string][]eventstore.PersistedEvent{},
			snapshots: map[string]eventstore.Snapshot{},
		}

		if s.tenants == nil {
			s.tenants = map[string]*tenant{}
		}

		s.tenants[tenantID] = t
	}

	return t
}

func (s *Store) now() time.Time {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	return now().UTC()
}

// sliceResult is an eventstore.Result that iterates over an in-memory slice.
type sliceResult struct {
	events []eventstore.PersistedEvent
}

func (r *sliceResult) Next(ctx context.Context) (eventstore.PersistedEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return eventstore.PersistedEvent{}, false, err
	}

	if len(r.events) == 0 {
		return eventstore.PersistedEvent{}, false, nil
	}

	ev := r.events[0]
	r.events = r.events[1:]

	return ev, true, nil
}

func (r *sliceResult) Close() error {
	r.events = nil
	return nil
}
