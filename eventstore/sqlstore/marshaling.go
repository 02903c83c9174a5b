package sqlstore

import (
	"database/sql"
	"encoding/json"

	"github.com/sequentio/sequent/eventstore"
)

// MarshalMetadata marshals envelope meta-data for storage. It is exported for
// use by driver implementations.
func MarshalMetadata(md map[string]string) ([]byte, error) {
	if len(md) == 0 {
		return nil, nil
	}

	return json.Marshal(md)
}

// UnmarshalMetadata unmarshals envelope meta-data from its stored
// representation.
func UnmarshalMetadata(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var md map[string]string
	err := json.Unmarshal(data, &md)

	return md, err
}

// MarshalVersion marshals a stream version to its nullable column
// representation.
func MarshalVersion(v eventstore.Version) sql.NullInt64 {
	if e, ok := v.(eventstore.Exact); ok {
		return sql.NullInt64{Int64: int64(e), Valid: true}
	}

	return sql.NullInt64{}
}

// UnmarshalVersion unmarshals a stream version from its nullable column
// representation.
func UnmarshalVersion(v sql.NullInt64) eventstore.Version {
	if v.Valid {
		return eventstore.Exact(v.Int64)
	}

	return eventstore.NoStream{}
}
