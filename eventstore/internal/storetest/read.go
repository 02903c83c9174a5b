package storetest

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/fixtures"
	"github.com/sequentio/sequent/internal/x/gomegax"
)

// declareReadTests declares tests for Events(), EventsInRange(), ReadFrom()
// and MaxGlobalSequence().
func declareReadTests(
	ctx *context.Context,
	out *Out,
) {
	ginkgo.Describe("reading events", func() {
		var envelopes []*envelope.Envelope

		appendTo := func(aggregateID string, expected eventstore.Version, envs ...*envelope.Envelope) []eventstore.PersistedEvent {
			events, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				aggregateID,
				expected,
				envs,
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			return events
		}

		drain := func(r eventstore.Result) []eventstore.PersistedEvent {
			defer r.Close()

			var events []eventstore.PersistedEvent

			for {
				ev, ok, err := r.Next(*ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				if !ok {
					return events
				}

				events = append(events, ev)
			}
		}

		ginkgo.BeforeEach(func() {
			envelopes = []*envelope.Envelope{
				fixtures.NewEnvelope("<event-0>", fixtures.AccountOpened{AccountID: "<account-a>", Owner: "<owner>"}),
				fixtures.NewEnvelope("<event-1>", fixtures.FundsDeposited{AccountID: "<account-a>", Amount: 100}),
				fixtures.NewEnvelope("<event-2>", fixtures.AccountOpened{AccountID: "<account-b>", Owner: "<owner>"}),
				fixtures.NewEnvelope("<event-3>", fixtures.FundsWithdrawn{AccountID: "<account-a>", Amount: 25}),
			}
		})

		ginkgo.It("returns an aggregate's events ascending by sequence number", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1])
			appendTo("<account-b>", eventstore.NoStream{}, envelopes[2])
			appendTo("<account-a>", eventstore.Exact(1), envelopes[3])

			r, err := out.Store.Events(*ctx, fixtures.DefaultTenantID, "<account-a>", 1)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			events := drain(r)
			gomega.Expect(events).To(gomega.HaveLen(3))
			gomega.Expect(events[0].Envelope.EventID).To(gomega.Equal("<event-0>"))
			gomega.Expect(events[1].Envelope.EventID).To(gomega.Equal("<event-1>"))
			gomega.Expect(events[2].Envelope.EventID).To(gomega.Equal("<event-3>"))
			gomega.Expect(events[2].Sequence).To(gomega.BeEquivalentTo(3))
		})

		ginkgo.It("honors the lower and upper bounds of a range", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1], envelopes[3])

			r, err := out.Store.EventsInRange(*ctx, fixtures.DefaultTenantID, "<account-a>", 2, 2)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			events := drain(r)
			gomega.Expect(events).To(gomega.HaveLen(1))
			gomega.Expect(events[0].Envelope.EventID).To(gomega.Equal("<event-1>"))
		})

		ginkgo.It("preserves envelope contents through persistence", func() {
			envelopes[0].Metadata = map[string]string{"trace": "<trace-id>"}

			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0])

			r, err := out.Store.Events(*ctx, fixtures.DefaultTenantID, "<account-a>", 1)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			events := drain(r)
			gomega.Expect(events).To(gomega.HaveLen(1))

			// time.Time fields are compared by instant, so a store is free to
			// normalize the timezone of persisted times.
			gomega.Expect(events[0].Envelope).To(
				gomegax.EqualX(envelopes[0]),
			)
		})

		ginkgo.It("assigns a contiguous tenant-wide global sequence across aggregates", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1])
			appendTo("<account-b>", eventstore.NoStream{}, envelopes[2])
			appendTo("<account-a>", eventstore.Exact(1), envelopes[3])

			batch, err := out.Store.ReadFrom(*ctx, fixtures.DefaultTenantID, 1, 100)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(batch).To(gomega.HaveLen(4))

			for i, ev := range batch {
				gomega.Expect(ev.GlobalSequence).To(gomega.BeEquivalentTo(i + 1))
			}

			gomega.Expect(batch[2].AggregateID).To(gomega.Equal("<account-b>"))
		})

		ginkgo.It("treats the lower bound of ReadFrom() as inclusive", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1], envelopes[3])

			batch, err := out.Store.ReadFrom(*ctx, fixtures.DefaultTenantID, 2, 100)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(batch).To(gomega.HaveLen(2))
			gomega.Expect(batch[0].GlobalSequence).To(gomega.BeEquivalentTo(2))
		})

		ginkgo.It("limits the batch to the requested size", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1], envelopes[3])

			batch, err := out.Store.ReadFrom(*ctx, fixtures.DefaultTenantID, 1, 2)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(batch).To(gomega.HaveLen(2))
		})

		ginkgo.It("returns an empty batch beyond the high-water mark", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0])

			batch, err := out.Store.ReadFrom(*ctx, fixtures.DefaultTenantID, 2, 100)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(batch).To(gomega.BeEmpty())
		})

		ginkgo.It("partitions events and global sequences by tenant", func() {
			appendTo("<account-a>", eventstore.NoStream{}, envelopes[0], envelopes[1])

			other := fixtures.NewEnvelope("<event-other>", fixtures.AccountOpened{AccountID: "<account-a>", Owner: "<owner>"})
			other.TenantID = "<other-tenant>"

			events, err := out.Store.AppendEvents(
				*ctx,
				"<other-tenant>",
				"<account-type>",
				"<account-a>",
				eventstore.NoStream{},
				[]*envelope.Envelope{other},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			// The other tenant's numbering starts at one regardless of the
			// traffic in the first tenant's partition.
			gomega.Expect(events[0].GlobalSequence).To(gomega.BeEquivalentTo(1))
			gomega.Expect(events[0].Sequence).To(gomega.BeEquivalentTo(1))

			batch, err := out.Store.ReadFrom(*ctx, "<other-tenant>", 1, 100)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(batch).To(gomega.HaveLen(1))
			gomega.Expect(batch[0].Envelope.EventID).To(gomega.Equal("<event-other>"))

			max, err := out.Store.MaxGlobalSequence(*ctx, fixtures.DefaultTenantID)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(max).To(gomega.BeEquivalentTo(2))
		})

		ginkgo.It("reports a zero high-water mark for an unknown tenant", func() {
			max, err := out.Store.MaxGlobalSequence(*ctx, "<unknown-tenant>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(max).To(gomega.BeZero())
		})
	})
}
