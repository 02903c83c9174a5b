// Package boltledger provides a ledger.Ledger implementation that persists
// records in a BoltDB database.
package boltledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sequentio/sequent/internal/x/bboltx"
	"github.com/sequentio/sequent/ledger"
	"go.etcd.io/bbolt"
)

// bucket paths within the database.
var (
	topBucket    = []byte("ledger")
	recordBucket = []byte("records")
)

// Ledger is an implementation of ledger.Ledger that persists records in a
// BoltDB database.
type Ledger struct {
	// DB is the BoltDB database. The ledger does not own the handle; closing
	// the database is the caller's responsibility.
	DB *bbolt.DB
}

var _ ledger.Ledger = (*Ledger)(nil)

// record is the stored form of a ledger record. The (event, processor) pair
// lives in the key, so only the remaining fields are stored in the value.
type record struct {
	TenantID   string    `json:"tenant_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// IsProcessed returns true if the event has already been processed by the
// given processor.
func (l *Ledger) IsProcessed(
	ctx context.Context,
	eventID, processorID string,
) (_ bool, err error) {
	defer bboltx.Recover(&err)

	var ok bool

	err = l.DB.View(func(tx *bbolt.Tx) error {
		if b := bboltx.Bucket(tx, topBucket, recordBucket); b != nil {
			ok = b.Get(recordKey(eventID, processorID)) != nil
		}

		return nil
	})

	return ok, err
}

// Record marks an event as processed by a processor. An existing record for
// the same pair is retained.
func (l *Ledger) Record(ctx context.Context, rec ledger.Record) (err error) {
	defer bboltx.Recover(&err)

	data, err := json.Marshal(record{
		TenantID:   rec.TenantID,
		RecordedAt: rec.RecordedAt,
	})
	if err != nil {
		return err
	}

	return l.DB.Update(func(tx *bbolt.Tx) error {
		b := bboltx.MustCreateBucketIfNotExists(tx, topBucket, recordBucket)
		k := recordKey(rec.EventID, rec.ProcessorID)

		if b.Get(k) != nil {
			return nil
		}

		bboltx.MustPut(b, k, data)

		return nil
	})
}

// recordKey builds the key for an (event, processor) pair. Event IDs never
// contain spaces, so a space is an unambiguous separator.
func recordKey(eventID, processorID string) []byte {
	return []byte(eventID + " " + processorID)
}
