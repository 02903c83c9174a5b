package eventstore

import (
	"fmt"
)

// ValidationError is the error returned when an operation's preconditions are
// violated, such as an empty batch or a tenant mismatch.
//
// It indicates a programming error in the caller. It is fatal and must not be
// retried.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid event store operation: " + e.Reason
}

// ConflictError is the error returned when an append loses an optimistic
// concurrency race.
//
// It is the only expected, caller-retryable failure: the caller should reload
// the aggregate's current state and re-apply its command. The store never
// retries internally.
type ConflictError struct {
	TenantID    string
	AggregateID string
	Expected    Version
	Actual      Version
}

func (e ConflictError) Error() string {
	return fmt.Sprintf(
		"optimistic concurrency conflict appending to aggregate %s/%s: expected version %s, actual version %s",
		e.TenantID,
		e.AggregateID,
		e.Expected,
		e.Actual,
	)
}
