package consumer

import (
	"sync/atomic"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/sequentio/sequent/bus"
)

// messageContext owns the terminal action of a single delivery.
//
// The bus contract allows exactly one of ack, nak or term per delivery. The
// context enforces that with a flag: the first settlement wins, a second
// attempt is a logged no-op that returns nil, and a failed settlement resets
// the flag so the action can be retried.
type messageContext struct {
	msg     bus.InboundMessage
	logger  logging.Logger
	settled int32
}

func (c *messageContext) Ack() error {
	return c.settle("ack", c.msg.Ack)
}

func (c *messageContext) Nak(delay time.Duration) error {
	return c.settle("nak", func() error {
		return c.msg.Nak(delay)
	})
}

func (c *messageContext) Term() error {
	return c.settle("term", c.msg.Term)
}

func (c *messageContext) settle(action string, fn func() error) error {
	if !atomic.CompareAndSwapInt32(&c.settled, 0, 1) {
		logging.Debug(
			c.logger,
			"delivery already settled, ignoring %s",
			action,
		)

		return nil
	}

	if err := fn(); err != nil {
		atomic.StoreInt32(&c.settled, 0)
		return err
	}

	return nil
}
