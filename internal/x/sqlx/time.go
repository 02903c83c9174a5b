package sqlx

import "time"

// MarshalTime marshals a time to the textual representation persisted by the
// SQL drivers. The zero-value is marshaled to nil.
func MarshalTime(t time.Time) []byte {
	if t.IsZero() {
		return nil
	}

	data, err := t.MarshalText()
	Must(err)

	return data
}

// UnmarshalTime is the inverse of MarshalTime. Empty input produces the
// zero-value.
func UnmarshalTime(data []byte) time.Time {
	var t time.Time

	if len(data) > 0 {
		Must(t.UnmarshalText(data))
	}

	return t
}
