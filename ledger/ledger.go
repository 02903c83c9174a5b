// Package ledger defines the processing ledger used to deduplicate event
// deliveries per processor.
//
// The ledger records which (event, processor) pairs have been processed. A
// delivery whose pair is already recorded is acknowledged without invoking
// the handler, making redelivered events idempotent regardless of how many
// times the bus presents them.
package ledger

import (
	"context"
	"time"
)

// Record is a single entry in the processing ledger.
type Record struct {
	// EventID is the ID of the processed event.
	EventID string

	// ProcessorID is the name of the processor that handled the event.
	ProcessorID string

	// TenantID is the tenant the event belongs to.
	TenantID string

	// RecordedAt is the time at which processing completed.
	RecordedAt time.Time
}

// Ledger is a persistent record of processed (event, processor) pairs.
type Ledger interface {
	// IsProcessed returns true if the event has already been processed by
	// the given processor.
	IsProcessed(ctx context.Context, eventID, processorID string) (bool, error)

	// Record marks an event as processed by a processor.
	//
	// Recording a pair that is already present is not an error; the existing
	// entry is retained.
	Record(ctx context.Context, rec Record) error
}
