package fixtures

import (
	"strconv"
	"sync"
	"time"

	"github.com/sequentio/sequent/envelope"
)

// DefaultTenantID is the tenant used by envelope fixtures unless otherwise
// specified.
const DefaultTenantID = "<tenant>"

// NewPacker returns an envelope packer that produces deterministic envelopes,
// suitable for use in tests.
//
// Event IDs are sequential integers and creation times advance by one second
// per envelope from a fixed epoch.
func NewPacker() *envelope.Packer {
	var (
		m    sync.Mutex
		id   int64
		next = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	)

	return &envelope.Packer{
		Marshaler: Marshaler,
		GenerateID: func() string {
			m.Lock()
			defer m.Unlock()

			id++
			return strconv.FormatInt(id, 10)
		},
		Now: func() time.Time {
			m.Lock()
			defer m.Unlock()

			t := next
			next = next.Add(1 * time.Second)
			return t
		},
	}
}

// NewEnvelope returns a new envelope containing the given event payload.
//
// If id is empty, a sequential ID is generated. times can contain one
// element, the creation time.
func NewEnvelope(
	id string,
	v interface{},
	times ...time.Time,
) *envelope.Envelope {
	env := packer.MustPack(DefaultTenantID, v, nil)

	if id != "" {
		env.EventID = id
	}

	switch len(times) {
	case 0:
	case 1:
		env.CreatedAt = times[0].UTC()
	default:
		panic("too many times specified")
	}

	return env
}

var packer = NewPacker()
