package consumer

import (
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// settleMessageStub is a minimal bus.InboundMessage implementation for
// exercising delivery settlement. It lives here rather than in the fixtures
// package because fixtures itself depends on this package.
type settleMessageStub struct {
	AckFunc  func() error
	NakFunc  func(time.Duration) error
	TermFunc func() error
}

func (m *settleMessageStub) Subject() string {
	return "<subject>"
}

func (m *settleMessageStub) Data() []byte {
	return nil
}

func (m *settleMessageStub) Delivered() uint64 {
	return 1
}

func (m *settleMessageStub) Ack() error {
	if m.AckFunc != nil {
		return m.AckFunc()
	}

	return nil
}

func (m *settleMessageStub) Nak(delay time.Duration) error {
	if m.NakFunc != nil {
		return m.NakFunc(delay)
	}

	return nil
}

func (m *settleMessageStub) Term() error {
	if m.TermFunc != nil {
		return m.TermFunc()
	}

	return nil
}

var _ = Describe("type messageContext", func() {
	var (
		msg    *settleMessageStub
		logger *logging.BufferedLogger
		mc     *messageContext
	)

	BeforeEach(func() {
		msg = &settleMessageStub{}
		logger = &logging.BufferedLogger{
			CaptureDebug: true,
		}

		mc = &messageContext{
			msg:    msg,
			logger: logger,
		}
	})

	Describe("func settle()", func() {
		It("settles the delivery at most once", func() {
			acks := 0
			msg.AckFunc = func() error {
				acks++
				return nil
			}

			terms := 0
			msg.TermFunc = func() error {
				terms++
				return nil
			}

			Expect(mc.Ack()).To(Succeed())
			Expect(mc.Ack()).To(Succeed())
			Expect(mc.Term()).To(Succeed())

			Expect(acks).To(Equal(1))
			Expect(terms).To(BeZero())

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "delivery already settled, ignoring term",
					IsDebug: true,
				},
			))
		})

		It("allows another attempt after a failed settlement", func() {
			msg.AckFunc = func() error {
				return errors.New("<ack failure>")
			}

			naks := 0
			msg.NakFunc = func(d time.Duration) error {
				naks++
				Expect(d).To(Equal(3 * time.Second))
				return nil
			}

			Expect(mc.Ack()).To(MatchError("<ack failure>"))
			Expect(mc.Nak(3 * time.Second)).To(Succeed())
			Expect(naks).To(Equal(1))
		})
	})
})
