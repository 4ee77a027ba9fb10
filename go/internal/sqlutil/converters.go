package sqlutil

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// FromSqlTime converts sql.NullTime to Go time pointer
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	return &val.Time
}

// FromNullRawMessage decodes a nullable JSON object column into a string map.
func FromNullRawMessage(val pqtype.NullRawMessage) (map[string]string, error) {
	if !val.Valid || len(val.RawMessage) == 0 {
		return nil, nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(val.RawMessage, &out); err != nil {
		return nil, err
	}
	return out, nil
}
