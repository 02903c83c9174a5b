// Package mlog produces consistently formatted log messages about event
// traffic.
package mlog

import (
	"fmt"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/sequentio/sequent/envelope"
)

// LogProduce logs a message indicating that an event is being published to
// the bus.
func LogProduce(
	log logging.Logger,
	env *envelope.Envelope,
	subject string,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ProduceIcon,
				"",
			},
			env.EventType,
			subject,
		),
	)
}

// LogProduceError logs a message indicating that a delivery attempt to the
// bus has failed.
func LogProduceError(
	log logging.Logger,
	env *envelope.Envelope,
	subject string,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ProduceErrorIcon,
				ErrorIcon,
			},
			env.EventType,
			subject,
			cause.Error(),
		),
	)
}

// LogConsume logs a message indicating that an event is being consumed.
func LogConsume(
	log logging.Logger,
	env *envelope.Envelope,
	processor string,
	delivered uint64,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ConsumeIcon,
				retryIcon(delivered),
			},
			env.EventType,
			processor,
		),
	)
}

// LogDuplicate logs a message indicating that a delivery was absorbed because
// the event had already been processed.
func LogDuplicate(
	log logging.Logger,
	env *envelope.Envelope,
	processor string,
) {
	logging.DebugString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ConsumeIcon,
				DuplicateIcon,
			},
			env.EventType,
			"already processed by "+processor,
		),
	)
}

// LogNack logs a message indicating that a delivery failed and will be
// retried.
func LogNack(
	log logging.Logger,
	env *envelope.Envelope,
	cause error,
	delay time.Duration,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			env.EventType,
			cause.Error(),
			fmt.Sprintf("next retry in %s", delay),
		),
	)
}

// LogTerm logs a message indicating that a delivery was terminated and will
// not be redelivered.
func LogTerm(
	log logging.Logger,
	env *envelope.Envelope,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(env.EventID),
				TenantIDIcon.WithLabel(env.TenantID),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			env.EventType,
			cause.Error(),
			"abandoned, no further retries",
		),
	)
}

// LogFromScope logs an informational message produced within an event handler
// via its scope.
func LogFromScope(
	log logging.Logger,
	eventID, tenantID string,
	f string, v []interface{},
) {
	logging.Log(
		log,
		String(
			[]IconWithLabel{
				EventIDIcon.WithID(eventID),
				TenantIDIcon.WithLabel(tenantID),
			},
			[]Icon{
				ConsumeIcon,
				"",
			},
			fmt.Sprintf(f, v...),
		),
	)
}

// retryIcon returns the icon to use when logging a delivery. A redelivery is
// marked with the retry icon.
func retryIcon(delivered uint64) Icon {
	if delivered > 1 {
		return RetryIcon
	}

	return ""
}
