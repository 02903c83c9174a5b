package fixtures

import (
	"context"
	"time"

	"github.com/sequentio/sequent/bus"
)

// TransportStub is a test implementation of the bus.Transport interface.
type TransportStub struct {
	bus.Transport

	HealthyFunc   func() error
	PublishFunc   func(context.Context, string, string, []byte) (bus.Ack, error)
	SubscribeFunc func(
		context.Context,
		string,
		string,
		func(context.Context, bus.InboundMessage),
	) (bus.Subscription, error)
}

// Healthy returns nil if the transport is able to accept messages.
func (t *TransportStub) Healthy() error {
	if t.HealthyFunc != nil {
		return t.HealthyFunc()
	}

	if t.Transport != nil {
		return t.Transport.Healthy()
	}

	return nil
}

// Publish sends a message on a subject.
func (t *TransportStub) Publish(
	ctx context.Context,
	subject, msgID string,
	data []byte,
) (bus.Ack, error) {
	if t.PublishFunc != nil {
		return t.PublishFunc(ctx, subject, msgID, data)
	}

	if t.Transport != nil {
		return t.Transport.Publish(ctx, subject, msgID, data)
	}

	return bus.Ack{}, nil
}

// Subscribe delivers messages published on subject to h.
func (t *TransportStub) Subscribe(
	ctx context.Context,
	subject, durable string,
	h func(context.Context, bus.InboundMessage),
) (bus.Subscription, error) {
	if t.SubscribeFunc != nil {
		return t.SubscribeFunc(ctx, subject, durable, h)
	}

	if t.Transport != nil {
		return t.Transport.Subscribe(ctx, subject, durable, h)
	}

	return SubscriptionStub{}, nil
}

// SubscriptionStub is a test implementation of the bus.Subscription
// interface.
type SubscriptionStub struct {
	CloseFunc func() error
}

// Close closes the subscription.
func (s SubscriptionStub) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}

	return nil
}

// InboundMessageStub is a test implementation of the bus.InboundMessage
// interface.
type InboundMessageStub struct {
	SubjectValue   string
	DataValue      []byte
	DeliveredValue uint64

	AckFunc  func() error
	NakFunc  func(time.Duration) error
	TermFunc func() error
}

// Subject returns the tenant-qualified subject the message was published on.
func (m *InboundMessageStub) Subject() string {
	return m.SubjectValue
}

// Data returns the message payload.
func (m *InboundMessageStub) Data() []byte {
	return m.DataValue
}

// Delivered returns the number of times this message has been delivered.
func (m *InboundMessageStub) Delivered() uint64 {
	if m.DeliveredValue == 0 {
		return 1
	}

	return m.DeliveredValue
}

// Ack acknowledges the message.
func (m *InboundMessageStub) Ack() error {
	if m.AckFunc != nil {
		return m.AckFunc()
	}

	return nil
}

// Nak negatively acknowledges the message.
func (m *InboundMessageStub) Nak(delay time.Duration) error {
	if m.NakFunc != nil {
		return m.NakFunc(delay)
	}

	return nil
}

// Term terminates the message.
func (m *InboundMessageStub) Term() error {
	if m.TermFunc != nil {
		return m.TermFunc()
	}

	return nil
}
