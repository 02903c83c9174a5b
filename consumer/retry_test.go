package consumer_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/sequentio/sequent/consumer"
)

var _ = Describe("type ExponentialBackoff", func() {
	var (
		rp    ExponentialBackoff
		cause error
	)

	BeforeEach(func() {
		rp = ExponentialBackoff{
			Min: 100 * time.Millisecond,
			Max: 1 * time.Hour,
		}
		cause = errors.New("<error>")
	})

	It("uses the minimum delay on the first failure", func() {
		delay := rp.NextDelay(1, cause)
		Expect(delay).To(Equal(100 * time.Millisecond))
	})

	It("increases the delay with subsequent failures", func() {
		var prev time.Duration

		for delivered := uint64(1); delivered <= 6; delivered++ {
			d := rp.NextDelay(delivered, cause)
			Expect(d).To(BeNumerically(">", prev))

			prev = d
		}
	})

	It("caps the delay at the maximum delay", func() {
		delay := rp.NextDelay(math.MaxUint32, cause)
		Expect(delay).To(Equal(1 * time.Hour))
	})

	It("supports random jitter", func() {
		rp.Jitter = 0.1

		first := rp.NextDelay(1, cause)
		Expect(first).To(BeNumerically("~", 100*time.Millisecond, 10*time.Millisecond))

		for i := 0; i < 100; i++ {
			if rp.NextDelay(1, cause) != first {
				return
			}
		}

		Fail("100 iterations returned results with no jitter")
	})
})
