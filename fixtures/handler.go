package fixtures

import (
	"context"

	"github.com/sequentio/sequent/consumer"
	"github.com/sequentio/sequent/envelope"
)

// HandlerStub is a test implementation of the consumer.Handler interface.
type HandlerStub struct {
	HandleEventFunc func(context.Context, consumer.Scope, *envelope.Envelope) error
}

// HandleEvent processes a single event.
func (h *HandlerStub) HandleEvent(
	ctx context.Context,
	s consumer.Scope,
	env *envelope.Envelope,
) error {
	if h.HandleEventFunc != nil {
		return h.HandleEventFunc(ctx, s, env)
	}

	return nil
}
