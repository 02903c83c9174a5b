// Package publisher delivers persisted events onto the bus with a bounded
// retry budget.
package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/linger/backoff"
	"github.com/sequentio/sequent/bus"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/internal/mlog"
)

// DefaultMaxAttempts is the number of delivery attempts made if
// Publisher.MaxAttempts is zero.
const DefaultMaxAttempts = 3

// DefaultBackoffStrategy is the strategy used to delay between retries if
// Publisher.BackoffStrategy is nil.
//
// It starts at one second, doubles on each consecutive failure, and is capped
// at thirty seconds.
var DefaultBackoffStrategy backoff.Strategy = backoff.WithTransforms(
	backoff.Exponential(1*time.Second),
	linger.Limiter(0, 30*time.Second),
)

// Publisher delivers events onto the bus, retrying transient failures with
// exponential backoff.
//
// Retry is bounded; a publish either yields exactly one acknowledgement or
// exactly one PublishError. The publisher never retries terminal failures
// and never reports partial delivery.
type Publisher struct {
	// Transport is the bus transport used to deliver events.
	Transport bus.Transport

	// MaxAttempts is the total number of delivery attempts, including the
	// first. If it is zero, DefaultMaxAttempts is used.
	MaxAttempts uint

	// BackoffStrategy determines the delay before each retry. If it is nil,
	// DefaultBackoffStrategy is used.
	BackoffStrategy backoff.Strategy

	// Logger is the target for log messages about deliveries and retries.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// Publish delivers an event envelope onto subject, qualified with tenantID.
//
// The envelope's event ID is used as the bus message ID, so a redelivered
// publish of the same event is absorbed by the broker as a duplicate.
func (p *Publisher) Publish(
	ctx context.Context,
	subject, tenantID string,
	env *envelope.Envelope,
) (bus.Ack, error) {
	if err := p.check(subject, tenantID, env); err != nil {
		return bus.Ack{}, PublishError{
			Subject:  subject,
			TenantID: tenantID,
			Cause:    err,
		}
	}

	data, err := envelope.MarshalBinary(env)
	if err != nil {
		return bus.Ack{}, PublishError{
			Subject:  subject,
			TenantID: tenantID,
			Cause:    err,
		}
	}

	qualified := bus.QualifySubject(tenantID, subject)
	max := p.MaxAttempts
	if max == 0 {
		max = DefaultMaxAttempts
	}

	counter := &backoff.Counter{
		Strategy: p.BackoffStrategy,
	}
	if counter.Strategy == nil {
		counter.Strategy = DefaultBackoffStrategy
	}

	var attempts uint

	for {
		attempts++

		switch r := p.attempt(ctx, qualified, env, data).(type) {
		case success:
			if r.ack.Duplicate {
				logging.Debug(
					p.Logger,
					"event %s already present on '%s', absorbed as duplicate",
					env.EventID,
					qualified,
				)
			} else {
				mlog.LogProduce(p.Logger, env, subject)
			}

			return r.ack, nil

		case terminalFailure:
			return bus.Ack{}, PublishError{
				Subject:  subject,
				TenantID: tenantID,
				Attempts: attempts,
				Cause:    r.cause,
			}

		case retryableFailure:
			if attempts >= max {
				return bus.Ack{}, PublishError{
					Subject:  subject,
					TenantID: tenantID,
					Attempts: attempts,
					Cause:    r.cause,
				}
			}

			mlog.LogProduceError(p.Logger, env, subject, r.cause)

			if err := counter.Sleep(ctx, r.cause); err != nil {
				return bus.Ack{}, PublishError{
					Subject:  subject,
					TenantID: tenantID,
					Attempts: attempts,
					Cause:    err,
				}
			}
		}
	}
}

// check verifies the preconditions of a publish. A failure here costs no
// delivery attempts.
func (p *Publisher) check(subject, tenantID string, env *envelope.Envelope) error {
	if subject == "" {
		return errors.New("subject must not be empty")
	}

	if tenantID == "" {
		return errors.New("tenant ID must not be empty")
	}

	if err := envelope.Validate(env); err != nil {
		return err
	}

	if env.TenantID != tenantID {
		return errors.New(
			"envelope belongs to tenant '" + env.TenantID +
				"', expected '" + tenantID + "'",
		)
	}

	return p.Transport.Healthy()
}

// attempt makes a single delivery attempt and classifies the outcome.
func (p *Publisher) attempt(
	ctx context.Context,
	subject string,
	env *envelope.Envelope,
	data []byte,
) attemptResult {
	ack, err := p.Transport.Publish(ctx, subject, env.EventID, data)

	if err != nil {
		if ctx.Err() != nil {
			return terminalFailure{ctx.Err()}
		}

		var transient bus.TransientError
		if errors.As(err, &transient) {
			return retryableFailure{err}
		}

		return terminalFailure{err}
	}

	if !ack.Duplicate && ack.Sequence == 0 {
		return retryableFailure{
			errors.New("transport returned an acknowledgement without a sequence"),
		}
	}

	return success{ack}
}

// attemptResult is the outcome of a single delivery attempt. It is a sealed
// set of three cases so that the retry loop handles every outcome
// explicitly.
type attemptResult interface {
	isAttemptResult()
}

type success struct{ ack bus.Ack }

type retryableFailure struct{ cause error }

type terminalFailure struct{ cause error }

func (success) isAttemptResult()          {}
func (retryableFailure) isAttemptResult() {}
func (terminalFailure) isAttemptResult()  {}
