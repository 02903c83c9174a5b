// Package membus provides an in-process implementation of bus.Transport.
//
// It mimics the observable behavior of a JetStream-backed transport closely
// enough for testing: publish acknowledgements with stream sequences,
// duplicate suppression by message ID, queue-style delivery within a durable
// group, and redelivery after a negative acknowledgement.
package membus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sequentio/sequent/bus"
)

// DefaultStream is the stream name reported in acknowledgements if Transport.
// Stream is empty.
const DefaultStream = "memory"

// Transport is an in-process implementation of bus.Transport.
type Transport struct {
	// Stream is the stream name reported in publish acknowledgements. If it
	// is empty, DefaultStream is used.
	Stream string

	m      sync.Mutex
	seq    uint64
	ids    map[string]uint64
	groups map[string]*group
}

var _ bus.Transport = (*Transport)(nil)

// group is the set of subscriptions sharing a durable name. Messages are
// distributed round-robin within the group.
type group struct {
	subject  string
	handlers []func(context.Context, bus.InboundMessage)
	next     int
}

// Healthy returns nil; the in-process transport is always reachable.
func (t *Transport) Healthy() error {
	return nil
}

// Publish delivers a message to one subscriber in every durable group whose
// subject matches.
func (t *Transport) Publish(
	ctx context.Context,
	subject, msgID string,
	data []byte,
) (bus.Ack, error) {
	if err := ctx.Err(); err != nil {
		return bus.Ack{}, err
	}

	if _, ok := bus.TenantFromSubject(subject); !ok {
		return bus.Ack{}, errors.New("membus: subject is not tenant-qualified")
	}

	t.m.Lock()
	defer t.m.Unlock()

	stream := t.Stream
	if stream == "" {
		stream = DefaultStream
	}

	if seq, ok := t.ids[msgID]; ok {
		return bus.Ack{
			Stream:    stream,
			Sequence:  seq,
			Duplicate: true,
		}, nil
	}

	t.seq++

	if t.ids == nil {
		t.ids = map[string]uint64{}
	}
	t.ids[msgID] = t.seq

	for _, g := range t.groups {
		if !t.matches(g, subject) {
			continue
		}

		// Round-robin over the group, skipping closed subscriptions.
		for i := 0; i < len(g.handlers); i++ {
			h := g.handlers[g.next%len(g.handlers)]
			g.next++

			if h != nil {
				t.deliver(h, subject, data, 1)
				break
			}
		}
	}

	return bus.Ack{
		Stream:   stream,
		Sequence: t.seq,
	}, nil
}

// Subscribe adds a subscription to the durable group named durable, creating
// the group if necessary.
func (t *Transport) Subscribe(
	ctx context.Context,
	subject, durable string,
	h func(context.Context, bus.InboundMessage),
) (bus.Subscription, error) {
	t.m.Lock()
	defer t.m.Unlock()

	g, ok := t.groups[durable]
	if !ok {
		g = &group{subject: subject}

		if t.groups == nil {
			t.groups = map[string]*group{}
		}
		t.groups[durable] = g
	} else if g.subject != subject {
		return nil, errors.New(
			"membus: durable '" + durable + "' is already bound to subject '" +
				g.subject + "'",
		)
	}

	g.handlers = append(g.handlers, h)
	i := len(g.handlers) - 1

	return &subscription{
		transport: t,
		durable:   durable,
		index:     i,
	}, nil
}

// matches returns true if a tenant-qualified subject matches a group's
// unqualified subscription subject.
func (t *Transport) matches(g *group, subject string) bool {
	tenantID, ok := bus.TenantFromSubject(subject)
	if !ok {
		return false
	}

	return subject == bus.QualifySubject(tenantID, g.subject)
}

// deliver invokes a handler with a fresh delivery of the message.
func (t *Transport) deliver(
	h func(context.Context, bus.InboundMessage),
	subject string,
	data []byte,
	delivered uint64,
) {
	m := &message{
		transport: t,
		handler:   h,
		subject:   subject,
		data:      data,
		delivered: delivered,
	}

	go h(context.Background(), m)
}

// message is a single delivery of a message to a subscriber.
type message struct {
	transport *Transport
	handler   func(context.Context, bus.InboundMessage)
	subject   string
	data      []byte
	delivered uint64

	m       sync.Mutex
	settled bool
}

var _ bus.InboundMessage = (*message)(nil)

func (m *message) Subject() string {
	return m.subject
}

func (m *message) Data() []byte {
	return m.data
}

func (m *message) Delivered() uint64 {
	return m.delivered
}

func (m *message) Ack() error {
	return m.settle()
}

// Nak settles this delivery and schedules a redelivery after the given delay.
func (m *message) Nak(delay time.Duration) error {
	if err := m.settle(); err != nil {
		return err
	}

	time.AfterFunc(delay, func() {
		m.transport.m.Lock()
		defer m.transport.m.Unlock()

		m.transport.deliver(m.handler, m.subject, m.data, m.delivered+1)
	})

	return nil
}

func (m *message) Term() error {
	return m.settle()
}

func (m *message) settle() error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.settled {
		return errors.New("membus: message already settled")
	}

	m.settled = true

	return nil
}

// subscription removes its handler from the durable group when closed.
type subscription struct {
	transport *Transport
	durable   string
	index     int
	closed    bool
}

func (s *subscription) Close() error {
	s.transport.m.Lock()
	defer s.transport.m.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	g, ok := s.transport.groups[s.durable]
	if !ok {
		return nil
	}

	g.handlers[s.index] = nil

	// Compact only when every subscription in the group is gone, so that the
	// indices held by the other subscriptions stay valid.
	for _, h := range g.handlers {
		if h != nil {
			return nil
		}
	}

	delete(s.transport.groups, s.durable)

	return nil
}
