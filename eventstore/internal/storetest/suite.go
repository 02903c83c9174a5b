// Package storetest provides a functional test-suite for implementations of
// the eventstore.Store interface.
package storetest

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/sequentio/sequent/eventstore"
)

// In is a container for values that are provided to the store-specific
// "before" function.
type In struct {
}

// Out is a container for values that are provided by the store-specific
// "before" function.
type Out struct {
	// Store is the store under test.
	Store eventstore.Store

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration
}

// DefaultTestTimeout is the default test timeout.
const DefaultTestTimeout = 10 * time.Second

// Declare declares generic behavioral tests for a specific store
// implementation.
func Declare(
	before func(context.Context, In) Out,
	after func(),
) {
	var (
		ctx    context.Context
		cancel func()
		out    Out
	)

	ginkgo.Context("standard event store test suite", func() {
		ginkgo.BeforeEach(func() {
			setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancelSetup()

			out = before(setupCtx, In{})

			if out.TestTimeout <= 0 {
				out.TestTimeout = DefaultTestTimeout
			}

			ctx, cancel = context.WithTimeout(context.Background(), out.TestTimeout)
		})

		ginkgo.AfterEach(func() {
			if after != nil {
				after()
			}

			cancel()
		})

		declareAppendTests(&ctx, &out)
		declareReadTests(&ctx, &out)
		declareSnapshotTests(&ctx, &out)
	})
}
