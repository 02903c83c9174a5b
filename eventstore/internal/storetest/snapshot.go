package storetest

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sequentio/sequent/eventstore"
	"github.com/sequentio/sequent/fixtures"
)

// declareSnapshotTests declares tests for SaveSnapshot() and LoadSnapshot().
func declareSnapshotTests(
	ctx *context.Context,
	out *Out,
) {
	ginkgo.Describe("snapshots", func() {
		var snap eventstore.Snapshot

		ginkgo.BeforeEach(func() {
			snap = eventstore.Snapshot{
				TenantID:      fixtures.DefaultTenantID,
				AggregateID:   "<account>",
				AggregateType: "<account-type>",
				LastSequence:  3,
				MediaType:     "application/json",
				Data:          []byte(`{"balance":75}`),
				TakenAt:       time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC),
			}
		})

		ginkgo.It("reports a missing snapshot", func() {
			_, ok, err := out.Store.LoadSnapshot(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("round-trips a snapshot", func() {
			err := out.Store.SaveSnapshot(*ctx, snap)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			loaded, ok, err := out.Store.LoadSnapshot(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			gomega.Expect(loaded.TenantID).To(gomega.Equal(snap.TenantID))
			gomega.Expect(loaded.AggregateID).To(gomega.Equal(snap.AggregateID))
			gomega.Expect(loaded.AggregateType).To(gomega.Equal(snap.AggregateType))
			gomega.Expect(loaded.LastSequence).To(gomega.Equal(snap.LastSequence))
			gomega.Expect(loaded.MediaType).To(gomega.Equal(snap.MediaType))
			gomega.Expect(loaded.Data).To(gomega.Equal(snap.Data))
			gomega.Expect(loaded.TakenAt.Equal(snap.TakenAt)).To(gomega.BeTrue())
		})

		ginkgo.It("replaces an existing snapshot for the same aggregate", func() {
			err := out.Store.SaveSnapshot(*ctx, snap)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			snap.LastSequence = 7
			snap.Data = []byte(`{"balance":200}`)

			err = out.Store.SaveSnapshot(*ctx, snap)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			loaded, ok, err := out.Store.LoadSnapshot(*ctx, fixtures.DefaultTenantID, "<account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(loaded.LastSequence).To(gomega.BeEquivalentTo(7))
			gomega.Expect(loaded.Data).To(gomega.Equal(snap.Data))
		})

		ginkgo.It("keeps snapshots of different aggregates separate", func() {
			err := out.Store.SaveSnapshot(*ctx, snap)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			_, ok, err := out.Store.LoadSnapshot(*ctx, fixtures.DefaultTenantID, "<other-account>")
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})
}
