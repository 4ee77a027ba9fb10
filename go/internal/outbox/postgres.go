package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRepository stores outbox rows with pgx. Inserts join the transaction carried by ctx,
// so an event commits or rolls back with the write that produced it.
type PgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

func (r *PgxRepository) Insert(ctx context.Context, event Event) error {
	var headers []byte
	if len(event.Headers) > 0 {
		b, err := json.Marshal(event.Headers)
		if err != nil {
			return fmt.Errorf("marshal headers: %w", err)
		}
		headers = b
	}
	_, err := sqlutil.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO outbox (id, aggregate_id, event_type, payload, headers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.AggregateID, event.EventType, []byte(event.Payload), headers, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

const selectEvent = `SELECT id, aggregate_id, event_type, payload, headers, created_at, sent_at FROM outbox`

func (r *PgxRepository) FetchUnsent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx,
		selectEvent+` WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanPgxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *PgxRepository) FetchByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := sqlutil.Conn(ctx, r.pool).QueryRow(ctx, selectEvent+` WHERE id = $1 AND sent_at IS NULL`, id)
	e, err := scanPgxEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("outbox event %s not found or already sent", id)
	}
	return e, err
}

func (r *PgxRepository) MarkSent(ctx context.Context, ids ...uuid.UUID) error {
	_, err := sqlutil.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE outbox SET sent_at = $2 WHERE id = ANY($1) AND sent_at IS NULL`, ids, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}

func (r *PgxRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := sqlutil.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL`).Scan(&n)
	return n, err
}

func scanPgxEvent(row pgx.Row) (*Event, error) {
	var (
		e       Event
		payload []byte
		headers []byte
	)
	if err := row.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &headers, &e.CreatedAt, &e.SentAt); err != nil {
		return nil, err
	}
	e.Payload = payload
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &e.Headers); err != nil {
			return nil, fmt.Errorf("decode headers of %s: %w", e.ID, err)
		}
	}
	return &e, nil
}
