// Package consumer runs event processors against the bus with exactly-once
// processing semantics.
//
// Each processor is a named, durable subscription paired with a handler. The
// processing ledger deduplicates redeliveries, so a handler observes each
// event at most once even though the bus delivers at-least-once.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/sequentio/sequent/bus"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/internal/mlog"
	"github.com/sequentio/sequent/ledger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the per-event handler timeout used if Consumer.Timeout is
// zero.
const DefaultTimeout = 5 * time.Second

// DefaultRetryPolicy is the policy used to delay redeliveries if
// Consumer.RetryPolicy is nil.
var DefaultRetryPolicy RetryPolicy = ExponentialBackoff{
	Min:    1 * time.Second,
	Max:    1 * time.Minute,
	Jitter: 0.25,
}

// Consumer delivers events from the bus to registered processors.
type Consumer struct {
	// Transport is the bus transport events are consumed from.
	Transport bus.Transport

	// Ledger records which events each processor has already handled.
	Ledger ledger.Ledger

	// Timeout is the maximum time a handler may spend on one event. If it is
	// zero, DefaultTimeout is used.
	Timeout time.Duration

	// RetryPolicy determines the delay before a failed event is redelivered.
	// If it is nil, DefaultRetryPolicy is used.
	RetryPolicy RetryPolicy

	// Logger is the target for log messages about event deliveries. If it is
	// nil, logging.DefaultLogger is used.
	Logger logging.Logger

	m             sync.Mutex
	running       bool
	registrations map[string]*registration
}

// registration binds a processor name to a subject and a handler.
type registration struct {
	processor string
	subject   string
	handler   Handler
}

// Register binds a handler to the events published on subject.
//
// processor names the binding; it keys the ledger entries and the durable
// subscription, so it must be stable across restarts and unique within the
// consumer. All registrations must be made before Run() is called.
func (c *Consumer) Register(processor, subject string, h Handler) error {
	if processor == "" {
		return errors.New("processor name must not be empty")
	}

	if subject == "" {
		return errors.New("subject must not be empty")
	}

	if h == nil {
		return errors.New("handler must not be nil")
	}

	c.m.Lock()
	defer c.m.Unlock()

	if c.running {
		return errors.New("consumer is already running")
	}

	if _, ok := c.registrations[processor]; ok {
		return errors.New("processor '" + processor + "' is already registered")
	}

	if c.registrations == nil {
		c.registrations = map[string]*registration{}
	}

	c.registrations[processor] = &registration{
		processor: processor,
		subject:   subject,
		handler:   h,
	}

	return nil
}

// Run subscribes every registered processor and delivers events until ctx is
// canceled or a subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.m.Lock()

	if c.running {
		c.m.Unlock()
		return errors.New("consumer is already running")
	}

	if len(c.registrations) == 0 {
		c.m.Unlock()
		return errors.New("no processors are registered")
	}

	c.running = true

	regs := make([]*registration, 0, len(c.registrations))
	for _, reg := range c.registrations {
		regs = append(regs, reg)
	}

	c.m.Unlock()

	defer func() {
		c.m.Lock()
		c.running = false
		c.m.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)

	for _, reg := range regs {
		reg := reg

		g.Go(func() error {
			sub, err := c.Transport.Subscribe(
				ctx,
				reg.subject,
				reg.processor,
				func(mctx context.Context, m bus.InboundMessage) {
					c.deliver(mctx, reg, m)
				},
			)
			if err != nil {
				return err
			}

			logging.LogString(
				c.Logger,
				mlog.String(
					nil,
					[]mlog.Icon{mlog.SystemIcon},
					fmt.Sprintf(
						"consuming from '%s' as '%s'",
						reg.subject,
						reg.processor,
					),
				),
			)

			<-ctx.Done()

			return multierr.Append(
				ctx.Err(),
				sub.Close(),
			)
		})
	}

	return g.Wait()
}

// deliver processes one delivery of one event.
func (c *Consumer) deliver(
	ctx context.Context,
	reg *registration,
	m bus.InboundMessage,
) {
	mc := &messageContext{
		msg:    m,
		logger: c.Logger,
	}

	env, err := envelope.UnmarshalBinary(m.Data())
	if err != nil {
		logging.Log(
			c.Logger,
			"terminating malformed message on '%s': %s",
			m.Subject(),
			err,
		)

		c.logSettleFailure(mc.Term())

		return
	}

	mlog.LogConsume(c.Logger, env, reg.processor, m.Delivered())

	processed, err := c.Ledger.IsProcessed(ctx, env.EventID, reg.processor)
	if err != nil {
		delay := c.retryPolicy().NextDelay(m.Delivered(), err)
		mlog.LogNack(c.Logger, env, err, delay)
		c.logSettleFailure(mc.Nak(delay))

		return
	}

	if processed {
		mlog.LogDuplicate(c.Logger, env, reg.processor)
		c.logSettleFailure(mc.Ack())

		return
	}

	if err := c.handle(ctx, reg, m, env); err == nil {
		c.logSettleFailure(mc.Ack())
		return
	} else if IsAbandoned(err) {
		mlog.LogTerm(c.Logger, env, err)
		c.logSettleFailure(mc.Term())

		return
	} else if errors.Is(err, errNotRecorded) {
		// Processing succeeded but the ledger write failed. Leaving the
		// delivery unsettled lets the bus redeliver it; the next attempt
		// records and acks.
		return
	} else {
		delay := c.retryPolicy().NextDelay(m.Delivered(), err)
		mlog.LogNack(c.Logger, env, err, delay)
		c.logSettleFailure(mc.Nak(delay))
	}
}

// errNotRecorded indicates that the handler succeeded but the ledger write
// did not.
var errNotRecorded = errors.New("event processed but not recorded")

// handle invokes the processor's handler and records the result in the
// ledger.
func (c *Consumer) handle(
	ctx context.Context,
	reg *registration,
	m bus.InboundMessage,
	env *envelope.Envelope,
) error {
	hctx, cancel := context.WithTimeout(
		ctx,
		linger.MustCoalesce(c.Timeout, DefaultTimeout),
	)
	defer cancel()

	s := Scope{
		TenantID:  env.TenantID,
		EventID:   env.EventID,
		Delivered: m.Delivered(),
		logger:    c.Logger,
	}

	if err := reg.handler.HandleEvent(hctx, s, env); err != nil {
		return err
	}

	rec := ledger.Record{
		EventID:     env.EventID,
		ProcessorID: reg.processor,
		TenantID:    env.TenantID,
		RecordedAt:  time.Now().UTC(),
	}

	if err := c.Ledger.Record(ctx, rec); err != nil {
		logging.Log(
			c.Logger,
			"unable to record event %s for '%s', awaiting redelivery: %s",
			env.EventID,
			reg.processor,
			err,
		)

		return errNotRecorded
	}

	return nil
}

func (c *Consumer) retryPolicy() RetryPolicy {
	if c.RetryPolicy != nil {
		return c.RetryPolicy
	}

	return DefaultRetryPolicy
}

func (c *Consumer) logSettleFailure(err error) {
	if err != nil {
		logging.Log(c.Logger, "unable to settle delivery: %s", err)
	}
}
