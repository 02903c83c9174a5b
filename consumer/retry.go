package consumer

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is an interface for determining how long to delay the
// redelivery of a failed event.
type RetryPolicy interface {
	// NextDelay returns the delay before the next delivery. delivered is the
	// number of deliveries made so far, including the one that just failed.
	NextDelay(delivered uint64, cause error) time.Duration
}

// ExponentialBackoff is a retry policy that uses exponential backoff with
// jitter.
type ExponentialBackoff struct {
	Min    time.Duration
	Max    time.Duration
	Jitter float64
}

// NextDelay returns the delay before the next delivery.
func (p ExponentialBackoff) NextDelay(delivered uint64, _ error) time.Duration {
	return p.delay(delivered - 1)
}

// delay returns the time to delay an event that has failed on the n'th retry.
func (p ExponentialBackoff) delay(n uint64) time.Duration {
	s := math.Pow(2, float64(n)) * p.Min.Seconds()

	if s > p.Max.Seconds() {
		s = p.Max.Seconds()
	}

	s *= 1 + (rand.Float64() * p.Jitter)

	return time.Duration(
		s * float64(time.Second),
	)
}
