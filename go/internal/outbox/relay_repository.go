package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// SQLRepository is the relay's view of the outbox over database/sql and lib/pq,
// the same driver its LISTEN connection uses. Rows are written by the API process, so it
// only reads and marks.
type SQLRepository struct {
	db *sql.DB
}

var _ Source = (*SQLRepository)(nil)

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) FetchUnsent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvent+` WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanSQLEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *SQLRepository) FetchByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.db.QueryRowContext(ctx, selectEvent+` WHERE id = $1 AND sent_at IS NULL`, id)
	e, err := scanSQLEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outbox event %s not found or already sent", id)
	}
	return e, err
}

func (r *SQLRepository) MarkSent(ctx context.Context, ids ...uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET sent_at = now() WHERE id = ANY($1::uuid[]) AND sent_at IS NULL`, pq.Array(strs))
	if err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}

func (r *SQLRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL`).Scan(&n)
	return n, err
}

// Ping reports database reachability for health checks.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLEvent(row sqlScanner) (*Event, error) {
	var (
		e       Event
		payload []byte
		headers pqtype.NullRawMessage
		sentAt  sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &headers, &e.CreatedAt, &sentAt); err != nil {
		return nil, err
	}
	h, err := sqlutil.FromNullRawMessage(headers)
	if err != nil {
		return nil, fmt.Errorf("decode headers of %s: %w", e.ID, err)
	}
	e.Payload = payload
	e.Headers = h
	e.SentAt = sqlutil.FromSqlTime(sentAt)
	return &e, nil
}
