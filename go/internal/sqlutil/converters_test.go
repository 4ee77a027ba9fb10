package sqlutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sqlc-dev/pqtype"
)

func TestFromNullRawMessage(t *testing.T) {
	got, err := FromNullRawMessage(pqtype.NullRawMessage{})
	if err != nil || got != nil {
		t.Fatalf("FromNullRawMessage(null) = %v, %v", got, err)
	}

	raw := pqtype.NullRawMessage{RawMessage: []byte(`{"ground_id":"g1","actor_id":"a1"}`), Valid: true}
	out, err := FromNullRawMessage(raw)
	if err != nil {
		t.Fatalf("FromNullRawMessage: %v", err)
	}
	want := map[string]string{"ground_id": "g1", "actor_id": "a1"}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromNullRawMessage(pqtype.NullRawMessage{RawMessage: []byte(`[1]`), Valid: true}); err == nil {
		t.Error("non-object headers should fail")
	}
}

func TestFromSqlTime(t *testing.T) {
	if FromSqlTime(sql.NullTime{}) != nil {
		t.Error("null time should be nil")
	}
	now := time.Now()
	if p := FromSqlTime(sql.NullTime{Time: now, Valid: true}); p == nil || !p.Equal(now) {
		t.Errorf("FromSqlTime = %v, want %v", p, now)
	}
}
