package publisher_test

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger/backoff"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sequentio/sequent/bus"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/fixtures"
	. "github.com/sequentio/sequent/publisher"
)

var _ = Describe("type Publisher", func() {
	var (
		ctx       context.Context
		cancel    func()
		transport *fixtures.TransportStub
		pub       *Publisher
		env       *envelope.Envelope
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		transport = &fixtures.TransportStub{}

		pub = &Publisher{
			Transport:       transport,
			BackoffStrategy: backoff.Constant(5 * time.Millisecond),
		}

		env = fixtures.NewEnvelope(
			"<event>",
			fixtures.AccountOpened{
				AccountID: "<account>",
				Owner:     "<owner>",
			},
		)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func Publish()", func() {
		It("publishes on the tenant-qualified subject using the event ID as the message ID", func() {
			var (
				subject string
				msgID   string
			)

			transport.PublishFunc = func(
				_ context.Context,
				s, id string,
				data []byte,
			) (bus.Ack, error) {
				subject = s
				msgID = id

				out, err := envelope.UnmarshalBinary(data)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(out.EventID).To(Equal(env.EventID))

				return bus.Ack{Stream: "<stream>", Sequence: 1}, nil
			}

			ack, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ack.Sequence).To(BeEquivalentTo(1))
			Expect(subject).To(Equal(fixtures.DefaultTenantID + ".account.events"))
			Expect(msgID).To(Equal(env.EventID))
		})

		It("logs the delivery", func() {
			logger := &logging.BufferedLogger{}
			pub.Logger = logger

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				return bus.Ack{Stream: "<stream>", Sequence: 1}, nil
			}

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "= <event>  ⋲ <tenant>  ▲    AccountOpened ● account.events",
				},
			))
		})

		It("logs each failed attempt", func() {
			logger := &logging.BufferedLogger{}
			pub.Logger = logger

			attempts := 0
			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++

				if attempts == 1 {
					return bus.Ack{}, bus.TransientError{Cause: errors.New("<timeout>")}
				}

				return bus.Ack{Stream: "<stream>", Sequence: 1}, nil
			}

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "= <event>  ⋲ <tenant>  △ ✖  AccountOpened ● account.events ● transient transport error: <timeout>",
				},
			))
		})

		It("retries transient failures until an attempt succeeds", func() {
			attempts := 0

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++

				if attempts < 3 {
					return bus.Ack{}, bus.TransientError{Cause: errors.New("<timeout>")}
				}

				return bus.Ack{Stream: "<stream>", Sequence: 9}, nil
			}

			ack, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ack.Sequence).To(BeEquivalentTo(9))
			Expect(attempts).To(Equal(3))
		})

		It("stops after the attempt budget is exhausted", func() {
			attempts := 0
			cause := errors.New("<timeout>")

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++
				return bus.Ack{}, bus.TransientError{Cause: cause}
			}

			pub.MaxAttempts = 2

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeEquivalentTo(2))
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(attempts).To(Equal(2))
		})

		It("does not retry terminal failures", func() {
			attempts := 0

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++
				return bus.Ack{}, errors.New("<stream not found>")
			}

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeEquivalentTo(1))
			Expect(attempts).To(Equal(1))
		})

		It("treats an acknowledgement without a sequence as a retryable failure", func() {
			attempts := 0

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++

				if attempts == 1 {
					return bus.Ack{Stream: "<stream>"}, nil
				}

				return bus.Ack{Stream: "<stream>", Sequence: 2}, nil
			}

			ack, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ack.Sequence).To(BeEquivalentTo(2))
			Expect(attempts).To(Equal(2))
		})

		It("reports a duplicate acknowledgement as success", func() {
			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				return bus.Ack{Stream: "<stream>", Sequence: 7, Duplicate: true}, nil
			}

			ack, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ack.Duplicate).To(BeTrue())
		})

		It("fails without attempting delivery if the subject is empty", func() {
			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				Fail("unexpected delivery attempt")
				return bus.Ack{}, nil
			}

			_, err := pub.Publish(ctx, "", fixtures.DefaultTenantID, env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeZero())
		})

		It("fails without attempting delivery if the tenant ID is empty", func() {
			_, err := pub.Publish(ctx, "account.events", "", env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeZero())
		})

		It("fails without attempting delivery if the envelope belongs to a different tenant", func() {
			_, err := pub.Publish(ctx, "account.events", "<other-tenant>", env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeZero())
		})

		It("fails without attempting delivery if the transport is unhealthy", func() {
			transport.HealthyFunc = func() error {
				return errors.New("<disconnected>")
			}

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Attempts).To(BeZero())
		})

		It("treats context cancellation as a terminal failure", func() {
			attempts := 0

			transport.PublishFunc = func(
				context.Context,
				string, string,
				[]byte,
			) (bus.Ack, error) {
				attempts++
				cancel()
				return bus.Ack{}, errors.New("<interrupted>")
			}

			_, err := pub.Publish(ctx, "account.events", fixtures.DefaultTenantID, env)

			var perr PublishError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(attempts).To(Equal(1))
		})
	})
})
