// Package bus defines the transport abstraction used to carry events between
// the publisher and consumers.
//
// Subjects are tenant-qualified before they reach the transport, so a single
// physical stream can carry the traffic of many tenants while consumers
// subscribe per-subject across all tenants.
package bus

import (
	"context"
	"strings"
	"time"
)

// Ack describes the broker's acknowledgement of a published message.
type Ack struct {
	// Stream is the name of the stream that stored the message.
	Stream string

	// Sequence is the position the broker assigned to the message within the
	// stream. It is always positive for a successful publish.
	Sequence uint64

	// Duplicate is true if the broker had already stored a message with the
	// same message ID and discarded this one.
	Duplicate bool
}

// TransientError indicates a fault that may resolve on its own, such as a
// broker timeout or a dropped connection. Publish failures that are not
// wrapped in a TransientError are terminal.
type TransientError struct {
	Cause error
}

func (e TransientError) Error() string {
	return "transient transport error: " + e.Cause.Error()
}

func (e TransientError) Unwrap() error {
	return e.Cause
}

// InboundMessage is a single delivery of a message to a subscriber.
//
// Exactly one of Ack(), Nak() or Term() must be called to settle the
// delivery. Nak() requests redelivery after a delay; Term() stops redelivery
// permanently.
type InboundMessage interface {
	// Subject returns the tenant-qualified subject the message was published
	// on.
	Subject() string

	// Data returns the message payload.
	Data() []byte

	// Delivered returns the number of times this message has been delivered,
	// including this delivery.
	Delivered() uint64

	// Ack acknowledges the message, marking it successfully processed.
	Ack() error

	// Nak negatively acknowledges the message, requesting redelivery after
	// the given delay.
	Nak(delay time.Duration) error

	// Term terminates the message, preventing any further redelivery.
	Term() error
}

// Subscription is an active subscription that delivers messages until it is
// closed.
type Subscription interface {
	Close() error
}

// Transport moves messages between publishers and subscribers.
type Transport interface {
	// Healthy returns nil if the transport is able to accept messages.
	Healthy() error

	// Publish sends a message on a subject. msgID is used for broker-side
	// duplicate suppression; publishing the same msgID twice within the
	// broker's dedup window yields an Ack with Duplicate set.
	Publish(
		ctx context.Context,
		subject, msgID string,
		data []byte,
	) (Ack, error)

	// Subscribe delivers messages published on subject, across all tenants,
	// to h. durable names the subscription's delivery state; subscriptions
	// sharing a durable name share a position and split the messages between
	// them.
	Subscribe(
		ctx context.Context,
		subject, durable string,
		h func(context.Context, InboundMessage),
	) (Subscription, error)
}

// QualifySubject prefixes a subject with the tenant it belongs to.
func QualifySubject(tenantID, subject string) string {
	return tenantID + "." + subject
}

// TenantFromSubject extracts the tenant ID from a tenant-qualified subject.
// It returns false if the subject is not tenant-qualified.
func TenantFromSubject(subject string) (string, bool) {
	i := strings.IndexByte(subject, '.')
	if i <= 0 || i == len(subject)-1 {
		return "", false
	}

	return subject[:i], true
}
