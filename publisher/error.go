package publisher

import "fmt"

// PublishError is returned by Publisher.Publish() when an event could not be
// delivered to the bus. It carries the number of attempts made and the cause
// of the final failure.
type PublishError struct {
	Subject  string
	TenantID string
	Attempts uint
	Cause    error
}

func (e PublishError) Error() string {
	return fmt.Sprintf(
		"unable to publish to '%s' for tenant '%s' after %d attempt(s): %s",
		e.Subject,
		e.TenantID,
		e.Attempts,
		e.Cause,
	)
}

func (e PublishError) Unwrap() error {
	return e.Cause
}
