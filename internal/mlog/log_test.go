package mlog_test

import (
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sequentio/sequent/fixtures"
	. "github.com/sequentio/sequent/internal/mlog"
)

var _ = Describe("func LogConsume()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogConsume(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			"<proc>",
			1,
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▼    AccountOpened ● <proc>",
			},
		))
	})

	It("shows a retry icon on a redelivery", func() {
		logger := &logging.BufferedLogger{}

		LogConsume(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			"<proc>",
			2,
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▼ ↻  AccountOpened ● <proc>",
			},
		))
	})
})

var _ = Describe("func LogProduce()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogProduce(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			"account.events",
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▲    AccountOpened ● account.events",
			},
		))
	})
})

var _ = Describe("func LogProduceError()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogProduceError(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			"account.events",
			errors.New("<cause>"),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  △ ✖  AccountOpened ● account.events ● <cause>",
			},
		))
	})
})

var _ = Describe("func LogDuplicate()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{
			CaptureDebug: true,
		}

		LogDuplicate(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			"<proc>",
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▼ ≡  AccountOpened ● already processed by <proc>",
				IsDebug: true,
			},
		))
	})
})

var _ = Describe("func LogNack()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogNack(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			errors.New("<cause>"),
			3*time.Second,
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▽ ✖  AccountOpened ● <cause> ● next retry in 3s",
			},
		))
	})
})

var _ = Describe("func LogTerm()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogTerm(
			logger,
			fixtures.NewEnvelope("<id>", fixtures.AccountOpened{}),
			errors.New("<cause>"),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <tenant>  ▽ ✖  AccountOpened ● <cause> ● abandoned, no further retries",
			},
		))
	})
})
