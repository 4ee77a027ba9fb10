package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps requests of one kind in the shared requests table. The payload is
// stored as JSONB.
type PostgresStore[P any] struct {
	pool *pgxpool.Pool
	kind models.RequestKind
}

func NewPostgresStore[P any](pool *pgxpool.Pool, kind models.RequestKind) *PostgresStore[P] {
	return &PostgresStore[P]{pool: pool, kind: kind}
}

const selectRequest = `SELECT id, kind, initiator_id, from_party, to_party, payload, status,
	response_message, created_at, updated_at, responded_at FROM requests`

func (s *PostgresStore[P]) Create(ctx context.Context, r *Request[P]) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = sqlutil.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO requests (id, kind, initiator_id, from_party, to_party, payload, status,
			response_message, created_at, updated_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, string(s.kind), r.InitiatorID, r.FromParty, r.ToParty, payload, string(r.Status),
		r.ResponseMessage, r.CreatedAt, r.UpdatedAt, r.RespondedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore[P]) Get(ctx context.Context, id uuid.UUID) (*Request[P], error) {
	return s.get(ctx, sqlutil.Conn(ctx, s.pool), id, "")
}

func (s *PostgresStore[P]) get(ctx context.Context, db sqlutil.DBTX, id uuid.UUID, suffix string) (*Request[P], error) {
	r, err := scanRequest[P](db.QueryRow(ctx, selectRequest+` WHERE id = $1 AND kind = $2`+suffix, id, string(s.kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("request", id)
	}
	return r, err
}

// Transition locks the row with SELECT ... FOR UPDATE. fn runs with the transaction in ctx so
// side effects and outbox rows commit or roll back together with the status change.
func (s *PostgresStore[P]) Transition(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, r *Request[P]) error) (*Request[P], error) {
	var out *Request[P]
	err := sqlutil.Run(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		r, err := s.get(ctx, tx, id, ` FOR UPDATE`)
		if err != nil {
			return err
		}
		if err := fn(ctx, r); err != nil {
			return err
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE requests SET payload = $2, status = $3, response_message = $4, updated_at = $5, responded_at = $6
			WHERE id = $1`,
			r.ID, payload, string(r.Status), r.ResponseMessage, r.UpdatedAt, r.RespondedAt)
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		out = r
		return nil
	})
	return out, err
}

func (s *PostgresStore[P]) ListByInitiator(ctx context.Context, actor uuid.UUID) ([]Request[P], error) {
	return s.list(ctx, selectRequest+` WHERE kind = $1 AND initiator_id = $2 ORDER BY created_at DESC`, string(s.kind), actor)
}

func (s *PostgresStore[P]) ListByRecipients(ctx context.Context, parties []uuid.UUID) ([]Request[P], error) {
	return s.list(ctx, selectRequest+` WHERE kind = $1 AND to_party = ANY($2) ORDER BY created_at DESC`, string(s.kind), parties)
}

func (s *PostgresStore[P]) list(ctx context.Context, query string, args ...any) ([]Request[P], error) {
	rows, err := sqlutil.Conn(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	out := []Request[P]{}
	for rows.Next() {
		r, err := scanRequest[P](rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest[P any](row pgx.Row) (*Request[P], error) {
	var (
		r       Request[P]
		kind    string
		status  string
		payload []byte
	)
	err := row.Scan(&r.ID, &kind, &r.InitiatorID, &r.FromParty, &r.ToParty, &payload, &status,
		&r.ResponseMessage, &r.CreatedAt, &r.UpdatedAt, &r.RespondedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &r.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	r.Kind = models.RequestKind(kind)
	r.Status = models.RequestStatus(status)
	return &r, nil
}
