package sqlx

import (
	"context"
	"database/sql"
)

// Begin starts a transaction on db.
func Begin(ctx context.Context, db *sql.DB) *sql.Tx {
	tx, err := db.BeginTx(ctx, nil)
	Must(err)
	return tx
}
