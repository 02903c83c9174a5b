package envelope

import (
	"time"
)

// Envelope is a container for a domain event and its meta-data.
//
// It is the wire model used both when persisting an event's payload and when
// publishing the event to the message bus. The payload is carried as an opaque
// packet; the envelope itself never inspects it.
type Envelope struct {
	// EventID uniquely identifies the event. It is assigned by the producer
	// before persistence and is the key used for deduplication downstream.
	EventID string

	// EventType is the versioned, portable name of the event's type.
	EventType string

	// TenantID identifies the tenant that owns the event.
	TenantID string

	// CreatedAt is the time at which the event was created by the producer.
	CreatedAt time.Time

	// MediaType is the MIME media-type of Data, as produced by the marshaler.
	MediaType string

	// Data is the marshaled representation of the event's payload.
	Data []byte

	// Metadata is out-of-band context associated with the event. It is never
	// inspected by the store or the transports.
	Metadata map[string]string
}
