package consumer

import (
	"context"
	"errors"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/internal/mlog"
)

// Handler processes the events delivered to a processor.
type Handler interface {
	// HandleEvent processes a single event.
	//
	// A nil return marks the event processed; it is recorded in the ledger
	// and never presented to this processor again. A non-nil return causes a
	// delayed redelivery, unless the error is wrapped with Abandon(), in
	// which case delivery stops permanently.
	HandleEvent(ctx context.Context, s Scope, env *envelope.Envelope) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, s Scope, env *envelope.Envelope) error

// HandleEvent processes a single event.
func (f HandlerFunc) HandleEvent(
	ctx context.Context,
	s Scope,
	env *envelope.Envelope,
) error {
	return f(ctx, s, env)
}

// Scope carries per-delivery information into a handler.
type Scope struct {
	// TenantID is the tenant the event belongs to.
	TenantID string

	// EventID is the ID of the event being processed.
	EventID string

	// Delivered is the number of times this event has been delivered to the
	// processor, including the current delivery.
	Delivered uint64

	logger logging.Logger
}

// Logf logs an informational message within the context of the delivery.
func (s Scope) Logf(f string, v ...interface{}) {
	mlog.LogFromScope(s.logger, s.EventID, s.TenantID, f, v)
}

// Abandon wraps a handler error to indicate that the event cannot be
// processed and must not be redelivered.
func Abandon(cause error) error {
	return abandoned{cause}
}

// IsAbandoned returns true if err or any error it wraps was produced by
// Abandon().
func IsAbandoned(err error) bool {
	var a abandoned
	return errors.As(err, &a)
}

type abandoned struct {
	cause error
}

func (e abandoned) Error() string {
	return "abandoned: " + e.cause.Error()
}

func (e abandoned) Unwrap() error {
	return e.cause
}
