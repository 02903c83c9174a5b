package eventstore

import "fmt"

// Version identifies a specific revision of an aggregate's event stream.
//
// The version of a stream is the zero-based revision of its most recent
// event, equal to that event's sequence number minus one. A stream that has
// no events yet has no version, represented by NoStream.
type Version interface {
	fmt.Stringer

	isVersion()
}

// NoStream is the version of an aggregate stream that does not exist yet.
//
// Appending with an expected version of NoStream requires that no events have
// ever been recorded for the aggregate.
type NoStream struct{}

func (NoStream) isVersion() {}

func (NoStream) String() string { return "<no stream>" }

// Exact is the version of an aggregate stream whose most recent event has the
// revision given by its value.
type Exact uint64

func (Exact) isVersion() {}

func (v Exact) String() string { return fmt.Sprintf("%d", uint64(v)) }

// VersionOf returns the version of a stream whose highest sequence number is
// seq, where seq of zero means the stream has no events.
func VersionOf(seq uint64) Version {
	if seq == 0 {
		return NoStream{}
	}

	return Exact(seq - 1)
}

// NextSequence returns the sequence number that the first event appended at
// the expected version v would be assigned.
func NextSequence(v Version) uint64 {
	switch v := v.(type) {
	case NoStream:
		return 1
	case Exact:
		return uint64(v) + 2
	default:
		panic(fmt.Sprintf("unsupported version type %T", v))
	}
}

// VersionsEqual returns true if a and b refer to the same stream revision.
func VersionsEqual(a, b Version) bool {
	switch a := a.(type) {
	case NoStream:
		_, ok := b.(NoStream)
		return ok
	case Exact:
		bv, ok := b.(Exact)
		return ok && a == bv
	default:
		return false
	}
}
