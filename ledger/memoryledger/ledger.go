// Package memoryledger provides an in-memory implementation of
// ledger.Ledger, intended for testing.
package memoryledger

import (
	"context"
	"sync"

	"github.com/sequentio/sequent/ledger"
)

// Ledger is an implementation of ledger.Ledger that keeps records in memory.
type Ledger struct {
	m       sync.RWMutex
	records map[key]ledger.Record
}

type key struct {
	eventID     string
	processorID string
}

var _ ledger.Ledger = (*Ledger)(nil)

// IsProcessed returns true if the event has already been processed by the
// given processor.
func (l *Ledger) IsProcessed(
	ctx context.Context,
	eventID, processorID string,
) (bool, error) {
	l.m.RLock()
	defer l.m.RUnlock()

	_, ok := l.records[key{eventID, processorID}]

	return ok, nil
}

// Record marks an event as processed by a processor. An existing record for
// the same pair is retained.
func (l *Ledger) Record(ctx context.Context, rec ledger.Record) error {
	l.m.Lock()
	defer l.m.Unlock()

	k := key{rec.EventID, rec.ProcessorID}

	if _, ok := l.records[k]; ok {
		return nil
	}

	if l.records == nil {
		l.records = map[key]ledger.Record{}
	}
	l.records[k] = rec

	return nil
}
