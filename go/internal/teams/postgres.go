package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresRepository stores teams, rosters and matches with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateTeam(ctx context.Context, t *models.Team) error {
	return sqlutil.Run(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO teams (id, name, district, village, captain_id, matches_played, matches_won, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.Name, t.District, t.Village, t.CaptainID, t.MatchesPlayed, t.MatchesWon, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
		for _, m := range t.Members {
			if _, err := tx.Exec(ctx, `INSERT INTO team_members (team_id, player_id, joined_at) VALUES ($1, $2, $3)`,
				t.ID, m, t.CreatedAt); err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	db := sqlutil.Conn(ctx, r.pool)
	var t models.Team
	err := db.QueryRow(ctx, `
		SELECT id, name, district, village, captain_id, matches_played, matches_won, created_at
		FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.District, &t.Village, &t.CaptainID, &t.MatchesPlayed, &t.MatchesWon, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("team", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT player_id FROM team_members WHERE team_id = $1 ORDER BY joined_at, player_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	t.Members, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) ListCaptainedTeams(ctx context.Context, captainID uuid.UUID) ([]models.Team, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx, `SELECT id FROM teams WHERE captain_id = $1 ORDER BY created_at`, captainID)
	if err != nil {
		return nil, fmt.Errorf("list captained teams: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, teamID, playerID uuid.UUID, at time.Time) (bool, error) {
	db := sqlutil.Conn(ctx, r.pool)
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)`, teamID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, apperrors.NotFound("team", teamID)
	}
	tag, err := db.Exec(ctx, `
		INSERT INTO team_members (team_id, player_id, joined_at) VALUES ($1, $2, $3)
		ON CONFLICT (team_id, player_id) DO NOTHING`, teamID, playerID, at)
	if err != nil {
		return false, fmt.Errorf("insert member: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const selectMatch = `SELECT id, home_team_id, away_team_id, match_date::text, match_time, ground_name, district,
	village, match_type, source_request_id, winner_team_id, completed_at, created_at FROM matches`

func (r *PostgresRepository) CreateMatch(ctx context.Context, m *models.Match) error {
	_, err := sqlutil.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO matches (id, home_team_id, away_team_id, match_date, match_time, ground_name, district,
			village, match_type, source_request_id, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.HomeTeamID, m.AwayTeamID, m.MatchDate.String(), m.MatchTime, m.GroundName, m.District,
		m.Village, m.MatchType, m.SourceRequestID, m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateMatch
	}
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := scanMatch(sqlutil.Conn(ctx, r.pool).QueryRow(ctx, selectMatch+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("match", id)
	}
	return m, err
}

func (r *PostgresRepository) ListMatches(ctx context.Context, teamID uuid.UUID) ([]models.Match, error) {
	rows, err := sqlutil.Conn(ctx, r.pool).Query(ctx,
		selectMatch+` WHERE home_team_id = $1 OR away_team_id = $1 ORDER BY match_date, created_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CompleteMatch(ctx context.Context, matchID uuid.UUID, winner *uuid.UUID, at time.Time) (*models.Match, error) {
	var out *models.Match
	err := sqlutil.Run(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		m, err := scanMatch(tx.QueryRow(ctx, selectMatch+` WHERE id = $1 FOR UPDATE`, matchID))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("match", matchID)
		}
		if err != nil {
			return err
		}
		if m.CompletedAt != nil {
			return &apperrors.StateError{Entity: "match", ID: matchID.String(), Current: "completed", Op: "record result of"}
		}
		if _, err := tx.Exec(ctx, `UPDATE matches SET winner_team_id = $2, completed_at = $3 WHERE id = $1`,
			matchID, winner, at); err != nil {
			return fmt.Errorf("update match: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE teams SET matches_played = matches_played + 1,
				matches_won = matches_won + CASE WHEN id = $3 THEN 1 ELSE 0 END
			WHERE id IN ($1, $2)`, m.HomeTeamID, m.AwayTeamID, winner); err != nil {
			return fmt.Errorf("update team counters: %w", err)
		}
		m.WinnerTeamID = winner
		m.CompletedAt = &at
		out = m
		return nil
	})
	return out, err
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var (
		m    models.Match
		date string
	)
	err := row.Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &date, &m.MatchTime, &m.GroundName, &m.District,
		&m.Village, &m.MatchType, &m.SourceRequestID, &m.WinnerTeamID, &m.CompletedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.MatchDate = models.Date(date)
	return &m, nil
}
