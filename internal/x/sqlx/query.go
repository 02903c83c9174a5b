package sqlx

import (
	"context"
	"database/sql"
)

// QueryInto executes a single-column, single-row query on the given DB and
// scans the result into a value.
func QueryInto(
	ctx context.Context,
	db DB,
	value interface{},
	query string,
	args ...interface{},
) {
	row := db.QueryRowContext(ctx, query, args...)
	Must(row.Scan(value))
}

// QueryUint64 executes a single-column, single-row query on the given DB and
// returns a single uint64 result.
func QueryUint64(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) (v uint64) {
	QueryInto(ctx, db, &v, query, args...)
	return v
}

// TryQueryUint64 executes a single-column, single-row query on the given DB.
// It returns false if the query produces no rows.
func TryQueryUint64(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) (v uint64, ok bool) {
	row := db.QueryRowContext(ctx, query, args...)

	err := row.Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false
	}
	Must(err)

	return v, true
}
