// Package natsbus provides a bus.Transport backed by NATS JetStream.
//
// JetStream supplies the delivery guarantees the bus contract requires:
// publish acknowledgements carrying stream positions, broker-side duplicate
// suppression keyed on message ID, and durable consumers with explicit
// per-message acknowledgement.
package natsbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sequentio/sequent/bus"
)

// Transport is an implementation of bus.Transport that uses NATS JetStream.
type Transport struct {
	// Conn is the NATS connection used by the transport.
	Conn *nats.Conn

	// JetStream is the JetStream context used to publish and subscribe. If it
	// is nil, one is created from Conn on first use.
	JetStream nats.JetStreamContext

	once sync.Once
	js   nats.JetStreamContext
	err  error
}

var _ bus.Transport = (*Transport)(nil)

// Healthy returns nil if the underlying NATS connection is usable.
func (t *Transport) Healthy() error {
	if t.Conn == nil && t.JetStream == nil {
		return errors.New("natsbus: no connection configured")
	}

	if t.Conn != nil && !t.Conn.IsConnected() {
		return errors.New("natsbus: not connected to NATS")
	}

	return nil
}

// Publish sends a message on a subject, using msgID for broker-side duplicate
// suppression.
func (t *Transport) Publish(
	ctx context.Context,
	subject, msgID string,
	data []byte,
) (bus.Ack, error) {
	js, err := t.jetStream()
	if err != nil {
		return bus.Ack{}, err
	}

	ack, err := js.Publish(
		subject,
		data,
		nats.MsgId(msgID),
		nats.Context(ctx),
	)
	if err != nil {
		return bus.Ack{}, classify(ctx, err)
	}

	return bus.Ack{
		Stream:    ack.Stream,
		Sequence:  ack.Sequence,
		Duplicate: ack.Duplicate,
	}, nil
}

// Subscribe delivers messages published on subject, across all tenants, to h.
//
// The subscription is a durable queue subscription with explicit
// acknowledgement; JetStream redelivers any message that is not acknowledged
// before its ack deadline.
func (t *Transport) Subscribe(
	ctx context.Context,
	subject, durable string,
	h func(context.Context, bus.InboundMessage),
) (bus.Subscription, error) {
	js, err := t.jetStream()
	if err != nil {
		return nil, err
	}

	sub, err := js.QueueSubscribe(
		"*."+subject,
		durable,
		func(m *nats.Msg) {
			h(ctx, &inboundMessage{msg: m})
		},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckExplicit(),
	)
	if err != nil {
		return nil, classify(ctx, err)
	}

	return subscription{sub}, nil
}

func (t *Transport) jetStream() (nats.JetStreamContext, error) {
	t.once.Do(func() {
		if t.JetStream != nil {
			t.js = t.JetStream
			return
		}

		if t.Conn == nil {
			t.err = errors.New("natsbus: no connection configured")
			return
		}

		t.js, t.err = t.Conn.JetStream()
	})

	return t.js, t.err
}

// classify wraps transient NATS failures in a bus.TransientError. Context
// cancellation is reported as the context's own error so that callers never
// retry it.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return bus.TransientError{Cause: err}
	}

	return err
}

// inboundMessage adapts a JetStream message to bus.InboundMessage.
type inboundMessage struct {
	msg *nats.Msg
}

func (m *inboundMessage) Subject() string {
	return m.msg.Subject
}

func (m *inboundMessage) Data() []byte {
	return m.msg.Data
}

func (m *inboundMessage) Delivered() uint64 {
	md, err := m.msg.Metadata()
	if err != nil {
		return 1
	}

	return md.NumDelivered
}

func (m *inboundMessage) Ack() error {
	return m.msg.Ack()
}

func (m *inboundMessage) Nak(delay time.Duration) error {
	return m.msg.NakWithDelay(delay)
}

func (m *inboundMessage) Term() error {
	return m.msg.Term()
}

// subscription adapts a NATS subscription to bus.Subscription.
type subscription struct {
	sub *nats.Subscription
}

func (s subscription) Close() error {
	return s.sub.Unsubscribe()
}
