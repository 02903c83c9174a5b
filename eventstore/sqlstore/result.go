package sqlstore

import (
	"context"
	"database/sql"

	"github.com/sequentio/sequent/envelope"
	"github.com/sequentio/sequent/eventstore"
	"go.uber.org/multierr"
)

// eventResult is an implementation of eventstore.Result for SQL databases.
type eventResult struct {
	rows   *sql.Rows
	driver Driver
}

// Next returns the next event in the result.
//
// It returns false if there are no more events in the result.
func (r *eventResult) Next(
	ctx context.Context,
) (eventstore.PersistedEvent, bool, error) {
	if ctx.Err() != nil {
		return eventstore.PersistedEvent{}, false, ctx.Err()
	}

	if r.rows.Next() {
		ev := eventstore.PersistedEvent{
			Envelope: &envelope.Envelope{},
		}

		err := r.driver.ScanEvent(r.rows, &ev)

		return ev, true, err
	}

	return eventstore.PersistedEvent{}, false, r.rows.Err()
}

// Close closes the cursor.
func (r *eventResult) Close() error {
	return multierr.Append(
		r.rows.Err(),
		r.rows.Close(),
	)
}
