package eventstore

import (
	"context"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/linger/backoff"
)

// DefaultBatchSize is the default number of events read per poll of the
// global stream.
const DefaultBatchSize = 100

// DefaultPollInterval is the default delay before polling the global stream
// again after a poll that returned no events.
const DefaultPollInterval = 500 * time.Millisecond

// CatchUpHandler handles events consumed from a tenant's global event stream.
type CatchUpHandler interface {
	// NextGlobalSequence returns the global sequence position at which
	// consumption should begin or resume.
	NextGlobalSequence(ctx context.Context, tenantID string) (uint64, error)

	// HandleEvent handles an event read from the global stream.
	HandleEvent(ctx context.Context, ev PersistedEvent) error
}

// CatchUpConsumer consumes a tenant's events across all aggregates in global
// sequence order by polling the store.
//
// No push notification is assumed; a consumer that has caught up with the
// high-water mark simply polls again after PollInterval.
type CatchUpConsumer struct {
	// TenantID is the tenant whose global stream is consumed.
	TenantID string

	// Store is the event store to read from.
	Store Store

	// Handler is the target for events read from the stream.
	Handler CatchUpHandler

	// BatchSize is the maximum number of events read per poll. If it is
	// non-positive, DefaultBatchSize is used.
	BatchSize int

	// PollInterval is the delay between polls that return no events. If it
	// is non-positive, DefaultPollInterval is used.
	PollInterval time.Duration

	// BackoffStrategy is the strategy used to delay restarting consumption
	// after a failure. If it is nil, backoff.DefaultStrategy is used.
	BackoffStrategy backoff.Strategy

	// Logger is the target for log messages from the consumer.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	next          uint64
	backoff       backoff.Counter
	handlerFailed bool
}

// Run consumes events from the stream until ctx is canceled.
func (c *CatchUpConsumer) Run(ctx context.Context) error {
	c.backoff = backoff.Counter{
		Strategy: c.BackoffStrategy,
	}

	for {
		err := c.consume(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.LogString(
			c.Logger,
			err.Error(),
		)

		if err := c.backoff.Sleep(ctx, err); err != nil {
			return err
		}
	}
}

// consume resolves the resume position and polls the store until ctx is
// canceled or an error occurs.
func (c *CatchUpConsumer) consume(ctx context.Context) error {
	var err error
	c.next, err = c.Handler.NextGlobalSequence(ctx, c.TenantID)
	if err != nil {
		return err
	}

	logging.Log(
		c.Logger,
		"consuming global stream for tenant %s, beginning at global sequence %d",
		c.TenantID,
		c.next,
	)

	for {
		if err := c.consumeBatch(ctx); err != nil {
			return err
		}
	}
}

// consumeBatch polls the store once and handles each event in the batch.
func (c *CatchUpConsumer) consumeBatch(ctx context.Context) error {
	batch, err := c.Store.ReadFrom(
		ctx,
		c.TenantID,
		c.next,
		c.batchSize(),
	)
	if err != nil {
		return err
	}

	if len(batch) == 0 {
		return linger.Sleep(ctx, c.PollInterval, DefaultPollInterval)
	}

	// We've successfully read from the stream. If the last failure was
	// caused by the store (and not the handler), reset the failure count
	// now, otherwise only reset it once we manage to actually handle an
	// event.
	if !c.handlerFailed {
		c.backoff.Reset()
	}

	for _, ev := range batch {
		if err := c.Handler.HandleEvent(ctx, ev); err != nil {
			c.handlerFailed = true
			return err
		}

		c.next = ev.GlobalSequence + 1
		c.handlerFailed = false
		c.backoff.Reset()
	}

	return nil
}

func (c *CatchUpConsumer) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}

	return DefaultBatchSize
}
