package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrDuplicateMatch is returned when a match already exists for a source request.
var ErrDuplicateMatch = errors.New("match already exists for request")

// Repository defines what the app layer needs from team storage.
// Writes must join the unit of work carried by ctx.
type Repository interface {
	CreateTeam(ctx context.Context, t *models.Team) error
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListCaptainedTeams(ctx context.Context, captainID uuid.UUID) ([]models.Team, error)
	AddMember(ctx context.Context, teamID, playerID uuid.UUID, at time.Time) (bool, error)
	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context, teamID uuid.UUID) ([]models.Match, error)
	// CompleteMatch stores the result and bumps both teams' counters. It fails with a
	// StateError when the match already has a result.
	CompleteMatch(ctx context.Context, matchID uuid.UUID, winner *uuid.UUID, at time.Time) (*models.Match, error)
}

// EventRecorder appends domain events to the outbox within the caller's unit of work.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any, headers map[string]string) error
}

// App handles team rosters and fixtures
type App struct {
	repo   Repository
	tx     sqlutil.Transactor
	events EventRecorder
	clock  clockwork.Clock
}

// NewApp creates a new teams App
func NewApp(repo Repository, tx sqlutil.Transactor, events EventRecorder, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		tx:     tx,
		events: events,
		clock:  clock,
	}
}

// CreateTeam creates a team captained by actor. The captain is the first member.
func (a *App) CreateTeam(ctx context.Context, actor uuid.UUID, req CreateTeamRequest) (*models.Team, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Invalid("name", req.Name, "is required")
	}

	t := &models.Team{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		District:  strings.TrimSpace(req.District),
		Village:   strings.TrimSpace(req.Village),
		CaptainID: actor,
		Members:   []uuid.UUID{actor},
		CreatedAt: a.clock.Now().UTC(),
	}

	err := a.tx.Transact(ctx, func(ctx context.Context) error {
		if err := a.repo.CreateTeam(ctx, t); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		return a.events.Record(ctx, outbox.TeamCreated, t.ID, t, map[string]string{outbox.HeaderActorID: actor.String()})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("team_id", t.ID.String()).
		Str("captain_id", actor.String()).
		Str("name", t.Name).
		Msg("created team")
	return t, nil
}

// GetTeam retrieves a team by ID
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// IsCaptain reports whether actor captains the team. A missing team is NotFound.
func (a *App) IsCaptain(ctx context.Context, actor, teamID uuid.UUID) (bool, error) {
	t, err := a.repo.GetTeam(ctx, teamID)
	if err != nil {
		return false, err
	}
	return t.CaptainID == actor, nil
}

// CaptainedTeamIDs lists the teams actor captains.
func (a *App) CaptainedTeamIDs(ctx context.Context, actor uuid.UUID) ([]uuid.UUID, error) {
	ts, err := a.repo.ListCaptainedTeams(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to list captained teams: %w", err)
	}
	ids := make([]uuid.UUID, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids, nil
}

// AddMember puts playerID on the roster. Adding an existing member is a no-op that reports false.
func (a *App) AddMember(ctx context.Context, teamID, playerID uuid.UUID) (bool, error) {
	added, err := a.repo.AddMember(ctx, teamID, playerID, a.clock.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}
	if !added {
		log.Debug().Str("team_id", teamID.String()).Str("player_id", playerID.String()).Msg("player already a member")
		return false, nil
	}

	payload := map[string]string{"team_id": teamID.String(), "player_id": playerID.String()}
	if err := a.events.Record(ctx, outbox.TeamMemberAdded, teamID, payload, nil); err != nil {
		return false, err
	}
	log.Info().Str("team_id", teamID.String()).Str("player_id", playerID.String()).Msg("added team member")
	return true, nil
}

// CreateMatchFromProposal schedules the fixture agreed in an accepted match request.
func (a *App) CreateMatchFromProposal(ctx context.Context, requestID, homeTeamID, awayTeamID uuid.UUID, p models.MatchProposal) (*models.Match, error) {
	for _, id := range []uuid.UUID{homeTeamID, awayTeamID} {
		if _, err := a.repo.GetTeam(ctx, id); err != nil {
			return nil, err
		}
	}

	m := &models.Match{
		ID:              uuid.New(),
		HomeTeamID:      homeTeamID,
		AwayTeamID:      awayTeamID,
		MatchDate:       p.ProposedDate,
		MatchTime:       p.ProposedTime,
		GroundName:      p.GroundName,
		District:        p.District,
		Village:         p.Village,
		MatchType:       p.MatchType,
		SourceRequestID: requestID,
		CreatedAt:       a.clock.Now().UTC(),
	}
	if err := a.repo.CreateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if err := a.events.Record(ctx, outbox.MatchCreated, m.ID, m, nil); err != nil {
		return nil, err
	}

	log.Info().
		Str("match_id", m.ID.String()).
		Str("request_id", requestID.String()).
		Str("date", m.MatchDate.String()).
		Msg("created match")
	return m, nil
}

// ListMatches lists a team's fixtures, earliest first
func (a *App) ListMatches(ctx context.Context, teamID uuid.UUID) ([]models.Match, error) {
	if _, err := a.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	ms, err := a.repo.ListMatches(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return ms, nil
}

// GetTeamWithMatches fetches a team and its fixtures
func (a *App) GetTeamWithMatches(ctx context.Context, teamID uuid.UUID) (*TeamWithMatches, error) {
	t, err := a.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ms, err := a.repo.ListMatches(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return &TeamWithMatches{Team: t, Matches: ms}, nil
}

// RecordResult completes a match. Either captain may record it, once.
func (a *App) RecordResult(ctx context.Context, actor, matchID uuid.UUID, req RecordResultRequest) (*models.Match, error) {
	var result *models.Match
	err := a.tx.Transact(ctx, func(ctx context.Context) error {
		m, err := a.repo.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		home, err := a.repo.GetTeam(ctx, m.HomeTeamID)
		if err != nil {
			return err
		}
		away, err := a.repo.GetTeam(ctx, m.AwayTeamID)
		if err != nil {
			return err
		}
		if actor != home.CaptainID && actor != away.CaptainID {
			return apperrors.NotAuthorized(actor, "record result of match "+matchID.String())
		}
		if w := req.WinnerTeamID; w != nil && *w != m.HomeTeamID && *w != m.AwayTeamID {
			return apperrors.Invalid("winner_team_id", w.String(), "must be one of the two teams")
		}

		result, err = a.repo.CompleteMatch(ctx, matchID, req.WinnerTeamID, a.clock.Now().UTC())
		if err != nil {
			return err
		}
		return a.events.Record(ctx, outbox.MatchResultRecorded, matchID, result, map[string]string{outbox.HeaderActorID: actor.String()})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("match_id", matchID.String()).Str("actor_id", actor.String()).Msg("recorded match result")
	return result, nil
}
