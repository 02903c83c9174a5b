package consumer_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sequentio/sequent/bus"
	. "github.com/sequentio/sequent/consumer"
	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/fixtures"
	"github.com/sequentio/sequent/ledger"
	"github.com/sequentio/sequent/ledger/memoryledger"
)

// policyStub adapts a function to the RetryPolicy interface.
type policyStub func(uint64, error) time.Duration

func (p policyStub) NextDelay(delivered uint64, cause error) time.Duration {
	return p(delivered, cause)
}

var _ = Describe("type Consumer", func() {
	var (
		ctx       context.Context
		cancel    func()
		transport *fixtures.TransportStub
		led       *memoryledger.Ledger
		handler   *fixtures.HandlerStub
		cons      *Consumer

		deliverTo chan func(context.Context, bus.InboundMessage)
		runDone   chan error
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		deliverTo = make(chan func(context.Context, bus.InboundMessage), 1)
		runDone = make(chan error, 1)

		transport = &fixtures.TransportStub{
			SubscribeFunc: func(
				_ context.Context,
				subject, durable string,
				h func(context.Context, bus.InboundMessage),
			) (bus.Subscription, error) {
				deliverTo <- h
				return fixtures.SubscriptionStub{}, nil
			},
		}

		led = &memoryledger.Ledger{}
		handler = &fixtures.HandlerStub{}

		cons = &Consumer{
			Transport: transport,
			Ledger:    led,
			RetryPolicy: policyStub(func(uint64, error) time.Duration {
				return 1 * time.Millisecond
			}),
		}
	})

	AfterEach(func() {
		cancel()

		Eventually(runDone).Should(Receive())
	})

	// start registers the handler and runs the consumer, returning the
	// delivery callback captured from the transport subscription.
	start := func() func(context.Context, bus.InboundMessage) {
		err := cons.Register("<processor>", "account.events", handler)
		Expect(err).ShouldNot(HaveOccurred())

		go func() {
			runDone <- cons.Run(ctx)
		}()

		var h func(context.Context, bus.InboundMessage)
		Eventually(deliverTo).Should(Receive(&h))

		return h
	}

	newMessage := func(env *envelope.Envelope) *fixtures.InboundMessageStub {
		data, err := envelope.MarshalBinary(env)
		Expect(err).ShouldNot(HaveOccurred())

		return &fixtures.InboundMessageStub{
			SubjectValue: fixtures.DefaultTenantID + ".account.events",
			DataValue:    data,
		}
	}

	Describe("func Run()", func() {
		It("acks and records an event after the handler succeeds", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			var handled *envelope.Envelope
			handler.HandleEventFunc = func(
				_ context.Context,
				s Scope,
				e *envelope.Envelope,
			) error {
				Expect(s.TenantID).To(Equal(env.TenantID))
				Expect(s.EventID).To(Equal(env.EventID))
				Expect(s.Delivered).To(BeEquivalentTo(1))

				handled = e
				return nil
			}

			h := start()

			msg := newMessage(env)
			acked := false
			msg.AckFunc = func() error {
				acked = true
				return nil
			}

			h(ctx, msg)

			Expect(handled).NotTo(BeNil())
			Expect(acked).To(BeTrue())

			ok, err := led.IsProcessed(ctx, env.EventID, "<processor>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("absorbs a redelivery of an already-processed event without invoking the handler", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			handled := 0
			handler.HandleEventFunc = func(
				context.Context,
				Scope,
				*envelope.Envelope,
			) error {
				handled++
				return nil
			}

			h := start()

			h(ctx, newMessage(env))

			redelivery := newMessage(env)
			redelivery.DeliveredValue = 2

			acked := false
			redelivery.AckFunc = func() error {
				acked = true
				return nil
			}

			h(ctx, redelivery)

			Expect(handled).To(Equal(1))
			Expect(acked).To(BeTrue())
		})

		It("scopes deduplication to the processor", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			err := led.Record(ctx, ledger.Record{
				EventID:     env.EventID,
				ProcessorID: "<other-processor>",
				TenantID:    env.TenantID,
				RecordedAt:  time.Now(),
			})
			Expect(err).ShouldNot(HaveOccurred())

			handled := 0
			handler.HandleEventFunc = func(
				context.Context,
				Scope,
				*envelope.Envelope,
			) error {
				handled++
				return nil
			}

			h := start()
			h(ctx, newMessage(env))

			Expect(handled).To(Equal(1))
		})

		It("naks a failed delivery with the policy's delay", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			cause := errors.New("<handler failure>")
			handler.HandleEventFunc = func(
				context.Context,
				Scope,
				*envelope.Envelope,
			) error {
				return cause
			}

			cons.RetryPolicy = policyStub(func(delivered uint64, err error) time.Duration {
				Expect(delivered).To(BeEquivalentTo(3))
				Expect(err).To(Equal(cause))
				return 42 * time.Millisecond
			})

			h := start()

			msg := newMessage(env)
			msg.DeliveredValue = 3

			var delay time.Duration
			msg.NakFunc = func(d time.Duration) error {
				delay = d
				return nil
			}

			h(ctx, msg)

			Expect(delay).To(Equal(42 * time.Millisecond))

			ok, err := led.IsProcessed(ctx, env.EventID, "<processor>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("terminates the delivery when the handler abandons the event", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			handler.HandleEventFunc = func(
				context.Context,
				Scope,
				*envelope.Envelope,
			) error {
				return Abandon(errors.New("<poison>"))
			}

			h := start()

			msg := newMessage(env)
			termed := false
			msg.TermFunc = func() error {
				termed = true
				return nil
			}

			h(ctx, msg)

			Expect(termed).To(BeTrue())
		})

		It("terminates a message that can not be decoded", func() {
			handled := 0
			handler.HandleEventFunc = func(
				context.Context,
				Scope,
				*envelope.Envelope,
			) error {
				handled++
				return nil
			}

			h := start()

			msg := &fixtures.InboundMessageStub{
				SubjectValue: fixtures.DefaultTenantID + ".account.events",
				DataValue:    []byte("<garbage>"),
			}

			termed := false
			msg.TermFunc = func() error {
				termed = true
				return nil
			}

			h(ctx, msg)

			Expect(termed).To(BeTrue())
			Expect(handled).To(BeZero())
		})

		It("leaves the delivery unsettled when the ledger write fails", func() {
			env := fixtures.NewEnvelope("<event>", fixtures.AccountOpened{AccountID: "<account>"})

			cons.Ledger = &fixtures.LedgerStub{
				RecordFunc: func(context.Context, ledger.Record) error {
					return errors.New("<ledger failure>")
				},
			}

			h := start()

			msg := newMessage(env)
			msg.AckFunc = func() error {
				Fail("unexpected ack")
				return nil
			}
			msg.NakFunc = func(time.Duration) error {
				Fail("unexpected nak")
				return nil
			}
			msg.TermFunc = func() error {
				Fail("unexpected term")
				return nil
			}

			h(ctx, msg)
		})

		It("returns an error if no processors are registered", func() {
			err := cons.Run(ctx)
			Expect(err).Should(HaveOccurred())

			runDone <- nil
		})
	})

	Describe("func Register()", func() {
		It("rejects a duplicate processor name", func() {
			err := cons.Register("<processor>", "account.events", handler)
			Expect(err).ShouldNot(HaveOccurred())

			err = cons.Register("<processor>", "other.events", handler)
			Expect(err).Should(HaveOccurred())

			runDone <- nil
		})

		It("rejects an empty processor name", func() {
			err := cons.Register("", "account.events", handler)
			Expect(err).Should(HaveOccurred())

			runDone <- nil
		})

		It("rejects an empty subject", func() {
			err := cons.Register("<processor>", "", handler)
			Expect(err).Should(HaveOccurred())

			runDone <- nil
		})

		It("rejects a nil handler", func() {
			err := cons.Register("<processor>", "account.events", nil)
			Expect(err).Should(HaveOccurred())

			runDone <- nil
		})
	})
})
