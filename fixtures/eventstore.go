package fixtures

import (
	"context"

	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
)

// StoreStub is a test implementation of the eventstore.Store interface.
type StoreStub struct {
	eventstore.Store

	AppendEventsFunc func(
		context.Context,
		string, string, string,
		eventstore.Version,
		[]*envelope.Envelope,
	) ([]eventstore.PersistedEvent, error)

	ReadFromFunc func(
		context.Context,
		string,
		uint64,
		int,
	) ([]eventstore.PersistedEvent, error)
}

// AppendEvents appends events to an aggregate's stream.
func (s *StoreStub) AppendEvents(
	ctx context.Context,
	tenantID, aggregateType, aggregateID string,
	expected eventstore.Version,
	envelopes []*envelope.Envelope,
) ([]eventstore.PersistedEvent, error) {
	if s.AppendEventsFunc != nil {
		return s.AppendEventsFunc(
			ctx,
			tenantID,
			aggregateType,
			aggregateID,
			expected,
			envelopes,
		)
	}

	if s.Store != nil {
		return s.Store.AppendEvents(
			ctx,
			tenantID,
			aggregateType,
			aggregateID,
			expected,
			envelopes,
		)
	}

	return nil, nil
}

// ReadFrom reads a batch of the tenant's events across all aggregates.
func (s *StoreStub) ReadFrom(
	ctx context.Context,
	tenantID string,
	fromGlobal uint64,
	batchSize int,
) ([]eventstore.PersistedEvent, error) {
	if s.ReadFromFunc != nil {
		return s.ReadFromFunc(ctx, tenantID, fromGlobal, batchSize)
	}

	if s.Store != nil {
		return s.Store.ReadFrom(ctx, tenantID, fromGlobal, batchSize)
	}

	return nil, nil
}
