package envelope

import (
	"fmt"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/google/uuid"
)

// Packer puts domain events into envelopes.
type Packer struct {
	// Marshaler is used to marshal event payloads into packets.
	Marshaler marshalkit.ValueMarshaler

	// GenerateID is a function used to generate new event IDs. If it is nil,
	// a UUID is generated.
	GenerateID func() string

	// Now is a function used to get the current time. If it is nil, time.Now()
	// is used.
	Now func() time.Time
}

// Pack returns an envelope containing the given event payload.
//
// md is optional out-of-band meta-data to attach to the envelope.
func (p *Packer) Pack(
	tenantID string,
	v interface{},
	md map[string]string,
) (*Envelope, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("can not pack %T event: tenant ID must not be empty", v)
	}

	packet, err := p.Marshaler.Marshal(v)
	if err != nil {
		return nil, err
	}

	_, n, err := packet.ParseMediaType()
	if err != nil {
		// CODE COVERAGE: This branch would require the marshaler to violate
		// its own requirements on the format of the media-type.
		panic(err)
	}

	return &Envelope{
		EventID:   p.generateID(),
		EventType: n,
		TenantID:  tenantID,
		CreatedAt: p.now(),
		MediaType: packet.MediaType,
		Data:      packet.Data,
		Metadata:  md,
	}, nil
}

// MustPack returns an envelope containing the given event payload, or panics
// if it is unable to do so.
func (p *Packer) MustPack(
	tenantID string,
	v interface{},
	md map[string]string,
) *Envelope {
	env, err := p.Pack(tenantID, v, md)
	if err != nil {
		panic(err)
	}

	return env
}

// Unpack returns the payload contained in an envelope, unmarshaled to its
// in-memory representation.
func Unpack(
	m marshalkit.ValueMarshaler,
	env *Envelope,
) (interface{}, error) {
	return m.Unmarshal(
		marshalkit.Packet{
			MediaType: env.MediaType,
			Data:      env.Data,
		},
	)
}

// now returns the current time, in UTC.
func (p *Packer) now() time.Time {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	return now().UTC()
}

// generateID generates a new event ID.
func (p *Packer) generateID() string {
	if p.GenerateID != nil {
		return p.GenerateID()
	}

	return uuid.NewString()
}
