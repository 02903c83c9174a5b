package fixtures

import (
	"context"

	"github.com/sequentio/sequent/ledger"
)

// LedgerStub is a test implementation of the ledger.Ledger interface.
type LedgerStub struct {
	ledger.Ledger

	IsProcessedFunc func(context.Context, string, string) (bool, error)
	RecordFunc      func(context.Context, ledger.Record) error
}

// IsProcessed returns true if the event has already been processed by the
// given processor.
func (l *LedgerStub) IsProcessed(
	ctx context.Context,
	eventID, processorID string,
) (bool, error) {
	if l.IsProcessedFunc != nil {
		return l.IsProcessedFunc(ctx, eventID, processorID)
	}

	if l.Ledger != nil {
		return l.Ledger.IsProcessed(ctx, eventID, processorID)
	}

	return false, nil
}

// Record marks an event as processed by a processor.
func (l *LedgerStub) Record(ctx context.Context, rec ledger.Record) error {
	if l.RecordFunc != nil {
		return l.RecordFunc(ctx, rec)
	}

	if l.Ledger != nil {
		return l.Ledger.Record(ctx, rec)
	}

	return nil
}
