package storetest

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/fixtures"
)

// declareAppendTests declares tests for AppendEvents() and CurrentVersion().
func declareAppendTests(
	ctx *context.Context,
	out *Out,
) {
	ginkgo.Describe("appending events", func() {
		var env0, env1, env2 *envelope.Envelope

		ginkgo.BeforeEach(func() {
			env0 = fixtures.NewEnvelope("<event-0>", fixtures.AccountOpened{AccountID: "<account>", Owner: "<owner>"})
			env1 = fixtures.NewEnvelope("<event-1>", fixtures.FundsDeposited{AccountID: "<account>", Amount: 100})
			env2 = fixtures.NewEnvelope("<event-2>", fixtures.FundsDeposited{AccountID: "<account>", Amount: 50})
		})

		ginkgo.It("assigns contiguous sequence numbers starting at one", func() {
			events, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0, env1},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(events).To(gomega.HaveLen(2))
			gomega.Expect(events[0].Sequence).To(gomega.BeEquivalentTo(1))
			gomega.Expect(events[1].Sequence).To(gomega.BeEquivalentTo(2))

			events, err = out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.Exact(1),
				[]*envelope.Envelope{env2},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(events[0].Sequence).To(gomega.BeEquivalentTo(3))
		})

		ginkgo.It("reports the stream version as the revision of the latest event", func() {
			v, err := out.Store.CurrentVersion(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(v).To(gomega.Equal(eventstore.Version(eventstore.NoStream{})))

			_, err = out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0, env1},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			v, err = out.Store.CurrentVersion(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(v).To(gomega.Equal(eventstore.Version(eventstore.Exact(1))))
		})

		ginkgo.It("returns a conflict when the expected version is stale", func() {
			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			_, err = out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env1},
			)

			var conflict eventstore.ConflictError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(conflict))

			conflict = err.(eventstore.ConflictError)
			gomega.Expect(conflict.TenantID).To(gomega.Equal(fixtures.DefaultTenantID))
			gomega.Expect(conflict.AggregateID).To(gomega.Equal("<account>"))
			gomega.Expect(conflict.Expected).To(gomega.Equal(eventstore.Version(eventstore.NoStream{})))
			gomega.Expect(conflict.Actual).To(gomega.Equal(eventstore.Version(eventstore.Exact(0))))
		})

		ginkgo.It("allows exactly one of two concurrent appends with the same expected version", func() {
			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			barrier := make(chan struct{})
			results := make(chan error, 2)

			race := func(env *envelope.Envelope) {
				<-barrier

				_, err := out.Store.AppendEvents(
					*ctx,
					fixtures.DefaultTenantID,
					"<account-type>",
					"<account>",
					eventstore.Exact(0),
					[]*envelope.Envelope{env},
				)

				results <- err
			}

			go race(env1)
			go race(env2)
			close(barrier)

			errs := []error{<-results, <-results}
			if errs[0] != nil {
				errs[0], errs[1] = errs[1], errs[0]
			}

			gomega.Expect(errs[0]).ShouldNot(gomega.HaveOccurred())

			var conflict eventstore.ConflictError
			gomega.Expect(errs[1]).To(gomega.BeAssignableToTypeOf(conflict))

			conflict = errs[1].(eventstore.ConflictError)
			gomega.Expect(conflict.Expected).To(gomega.Equal(eventstore.Version(eventstore.Exact(0))))
			gomega.Expect(conflict.Actual).To(gomega.Equal(eventstore.Version(eventstore.Exact(1))))

			// The loser must not have written anything.
			v, err := out.Store.CurrentVersion(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(v).To(gomega.Equal(eventstore.Version(eventstore.Exact(1))))

			max, err := out.Store.MaxGlobalSequence(*ctx, fixtures.DefaultTenantID)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(max).To(gomega.BeEquivalentTo(2))
		})

		ginkgo.It("writes nothing when the append conflicts", func() {
			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0},
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			_, err = out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.Exact(5),
				[]*envelope.Envelope{env1, env2},
			)
			gomega.Expect(err).To(gomega.HaveOccurred())

			v, err := out.Store.CurrentVersion(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(v).To(gomega.Equal(eventstore.Version(eventstore.Exact(0))))

			max, err := out.Store.MaxGlobalSequence(*ctx, fixtures.DefaultTenantID)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(max).To(gomega.BeEquivalentTo(1))
		})

		ginkgo.It("rejects an empty batch", func() {
			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				nil,
			)

			var verr eventstore.ValidationError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(verr))
		})

		ginkgo.It("rejects an envelope that belongs to a different tenant", func() {
			env1.TenantID = "<other-tenant>"

			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0, env1},
			)

			var verr eventstore.ValidationError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(verr))
		})

		ginkgo.It("rejects a batch containing the same event twice", func() {
			_, err := out.Store.AppendEvents(
				*ctx,
				fixtures.DefaultTenantID,
				"<account-type>",
				"<account>",
				eventstore.NoStream{},
				[]*envelope.Envelope{env0, env0},
			)

			var verr eventstore.ValidationError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(verr))
		})
	})
}
