package eventstore_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/sequentio/sequent/eventstore"
)

var _ = Describe("stream versions", func() {
	Describe("func VersionOf()", func() {
		It("maps an empty stream to NoStream", func() {
			Expect(VersionOf(0)).To(Equal(Version(NoStream{})))
		})

		It("maps a sequence to the zero-based revision of its event", func() {
			Expect(VersionOf(1)).To(Equal(Version(Exact(0))))
			Expect(VersionOf(5)).To(Equal(Version(Exact(4))))
		})
	})

	Describe("func NextSequence()", func() {
		It("returns one for NoStream", func() {
			Expect(NextSequence(NoStream{})).To(BeEquivalentTo(1))
		})

		It("returns the sequence after the expected revision", func() {
			Expect(NextSequence(Exact(0))).To(BeEquivalentTo(2))
			Expect(NextSequence(Exact(4))).To(BeEquivalentTo(6))
		})
	})

	Describe("func VersionsEqual()", func() {
		It("compares versions by value", func() {
			Expect(VersionsEqual(NoStream{}, NoStream{})).To(BeTrue())
			Expect(VersionsEqual(Exact(3), Exact(3))).To(BeTrue())
			Expect(VersionsEqual(Exact(3), Exact(4))).To(BeFalse())
			Expect(VersionsEqual(NoStream{}, Exact(0))).To(BeFalse())
		})
	})
})
