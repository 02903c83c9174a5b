// Package ledgertest provides a functional test-suite for implementations of
// the ledger.Ledger interface.
package ledgertest

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sequentio/sequent/ledger"
)

// In is a container for values that are provided to the ledger-specific
// "before" function.
type In struct {
}

// Out is a container for values that are provided by the ledger-specific
// "before" function.
type Out struct {
	// Ledger is the ledger under test.
	Ledger ledger.Ledger

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration
}

// DefaultTestTimeout is the default test timeout.
const DefaultTestTimeout = 10 * time.Second

// Declare declares generic behavioral tests for a specific ledger
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

	ginkgo.Context("standard ledger test suite", func() {
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

		declareLedgerTests(&ctx, &out)
	})
}

// declareLedgerTests declares tests for IsProcessed() and Record().
func declareLedgerTests(
	ctx *context.Context,
	out *Out,
) {
	ginkgo.Describe("recording processed events", func() {
		var rec ledger.Record

		ginkgo.BeforeEach(func() {
			rec = ledger.Record{
				EventID:     "<event>",
				ProcessorID: "<processor>",
				TenantID:    "<tenant>",
				RecordedAt:  time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC),
			}
		})

		ginkgo.It("reports an unseen pair as unprocessed", func() {
			ok, err := out.Ledger.IsProcessed(*ctx, "<event>", "<processor>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("reports a recorded pair as processed", func() {
			err := out.Ledger.Record(*ctx, rec)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			ok, err := out.Ledger.IsProcessed(*ctx, "<event>", "<processor>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("treats a duplicate record as success", func() {
			err := out.Ledger.Record(*ctx, rec)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			err = out.Ledger.Record(*ctx, rec)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			ok, err := out.Ledger.IsProcessed(*ctx, "<event>", "<processor>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("scopes records to the processor", func() {
			err := out.Ledger.Record(*ctx, rec)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			ok, err := out.Ledger.IsProcessed(*ctx, "<event>", "<other-processor>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("scopes records to the event", func() {
			err := out.Ledger.Record(*ctx, rec)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			ok, err := out.Ledger.IsProcessed(*ctx, "<other-event>", "<processor>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})
}
