package envelope_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/fixtures"
)

var _ = Describe("type Packer", func() {
	var packer *Packer

	BeforeEach(func() {
		packer = &Packer{
			Marshaler: fixtures.Marshaler,
			GenerateID: func() string {
				return "<id>"
			},
			Now: func() time.Time {
				return time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC)
			},
		}
	})

	Describe("func Pack()", func() {
		It("returns an envelope describing the event", func() {
			env, err := packer.Pack(
				"<tenant>",
				fixtures.AccountOpened{
					AccountID: "<account>",
					Owner:     "<owner>",
				},
				map[string]string{"trace": "<trace-id>"},
			)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(env.EventID).To(Equal("<id>"))
			Expect(env.EventType).To(Equal("AccountOpened"))
			Expect(env.TenantID).To(Equal("<tenant>"))
			Expect(env.CreatedAt).To(BeTemporally("==", time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC)))
			Expect(env.MediaType).NotTo(BeEmpty())
			Expect(env.Data).NotTo(BeEmpty())
			Expect(env.Metadata).To(Equal(map[string]string{"trace": "<trace-id>"}))
		})

		It("returns an error if the tenant ID is empty", func() {
			_, err := packer.Pack(
				"",
				fixtures.AccountOpened{},
				nil,
			)
			Expect(err).Should(HaveOccurred())
		})

		It("returns an error if the payload can not be marshaled", func() {
			_, err := packer.Pack(
				"<tenant>",
				struct{ Unregistered bool }{},
				nil,
			)
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("func Unpack()", func() {
		It("returns the original payload", func() {
			ev := fixtures.FundsDeposited{
				AccountID: "<account>",
				Amount:    100,
			}

			env, err := packer.Pack("<tenant>", ev, nil)
			Expect(err).ShouldNot(HaveOccurred())

			v, err := Unpack(fixtures.Marshaler, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(v).To(Equal(ev))
		})
	})
})
