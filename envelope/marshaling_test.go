package envelope_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/fixtures"
)

var _ = Describe("binary envelope representation", func() {
	Describe("func MarshalBinary()", func() {
		It("round-trips an envelope", func() {
			env := fixtures.NewEnvelope(
				"<event>",
				fixtures.AccountOpened{
					AccountID: "<account>",
					Owner:     "<owner>",
				},
			)
			env.Metadata = map[string]string{"trace": "<trace-id>"}

			data, err := MarshalBinary(env)
			Expect(err).ShouldNot(HaveOccurred())

			out, err := UnmarshalBinary(data)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(out.EventID).To(Equal(env.EventID))
			Expect(out.EventType).To(Equal(env.EventType))
			Expect(out.TenantID).To(Equal(env.TenantID))
			Expect(out.CreatedAt.Equal(env.CreatedAt)).To(BeTrue())
			Expect(out.MediaType).To(Equal(env.MediaType))
			Expect(out.Data).To(Equal(env.Data))
			Expect(out.Metadata).To(Equal(env.Metadata))
		})

		It("refuses to marshal an invalid envelope", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{})
			env.TenantID = ""

			_, err := MarshalBinary(env)
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("func UnmarshalBinary()", func() {
		It("returns an error if the data is not a valid frame", func() {
			_, err := UnmarshalBinary([]byte("{"))
			Expect(err).Should(HaveOccurred())
		})

		It("returns an error if required fields are missing", func() {
			_, err := UnmarshalBinary([]byte(`{"event_id":"<event>"}`))
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("func Validate()", func() {
		It("accepts a fully-populated envelope", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{})
			Expect(Validate(env)).ShouldNot(HaveOccurred())
		})

		It("rejects a nil envelope", func() {
			Expect(Validate(nil)).Should(HaveOccurred())
		})
	})
})
