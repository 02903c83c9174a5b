package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// wireEnvelope is the JSON frame used to transmit an envelope over the
// message bus.
type wireEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	TenantID  string            `json:"tenant_id"`
	CreatedAt time.Time         `json:"created_at"`
	MediaType string            `json:"media_type"`
	Data      []byte            `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MarshalBinary marshals an envelope to its binary representation for
// transmission over the message bus.
func MarshalBinary(env *Envelope) ([]byte, error) {
	if err := Validate(env); err != nil {
		return nil, err
	}

	return json.Marshal(wireEnvelope{
		EventID:   env.EventID,
		EventType: env.EventType,
		TenantID:  env.TenantID,
		CreatedAt: env.CreatedAt,
		MediaType: env.MediaType,
		Data:      env.Data,
		Metadata:  env.Metadata,
	})
}

// UnmarshalBinary unmarshals an envelope from the binary representation
// produced by MarshalBinary().
func UnmarshalBinary(data []byte) (*Envelope, error) {
	var w wireEnvelope

	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	env := &Envelope{
		EventID:   w.EventID,
		EventType: w.EventType,
		TenantID:  w.TenantID,
		CreatedAt: w.CreatedAt,
		MediaType: w.MediaType,
		Data:      w.Data,
		Metadata:  w.Metadata,
	}

	return env, Validate(env)
}

// Validate returns an error if env is missing any information required for it
// to be persisted or published.
func Validate(env *Envelope) error {
	if env == nil {
		return errors.New("envelope must not be nil")
	}

	if env.EventID == "" {
		return errors.New("envelope event ID must not be empty")
	}

	if env.EventType == "" {
		return fmt.Errorf("envelope %s: event type must not be empty", env.EventID)
	}

	if env.TenantID == "" {
		return fmt.Errorf("envelope %s: tenant ID must not be empty", env.EventID)
	}

	if env.MediaType == "" {
		return fmt.Errorf("envelope %s: media-type must not be empty", env.EventID)
	}

	return nil
}
