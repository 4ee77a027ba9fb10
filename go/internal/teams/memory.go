package teams

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository guarded by one mutex.
type MemoryRepository struct {
	mu       sync.RWMutex
	teams    map[uuid.UUID]models.Team
	matches  map[uuid.UUID]models.Match
	bySource map[uuid.UUID]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		teams:    map[uuid.UUID]models.Team{},
		matches:  map[uuid.UUID]models.Match{},
		bySource: map[uuid.UUID]uuid.UUID{},
	}
}

func (r *MemoryRepository) CreateTeam(_ context.Context, t *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	c.Members = slices.Clone(t.Members)
	r.teams[t.ID] = c
	return nil
}

func (r *MemoryRepository) GetTeam(_ context.Context, id uuid.UUID) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, apperrors.NotFound("team", id)
	}
	t.Members = slices.Clone(t.Members)
	return &t, nil
}

func (r *MemoryRepository) ListCaptainedTeams(_ context.Context, captainID uuid.UUID) ([]models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Team
	for _, t := range r.teams {
		if t.CaptainID == captainID {
			t.Members = slices.Clone(t.Members)
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) AddMember(_ context.Context, teamID, playerID uuid.UUID, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok {
		return false, apperrors.NotFound("team", teamID)
	}
	if t.HasMember(playerID) {
		return false, nil
	}
	t.Members = append(slices.Clone(t.Members), playerID)
	r.teams[teamID] = t
	return true, nil
}

func (r *MemoryRepository) CreateMatch(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.bySource[m.SourceRequestID]; dup {
		return ErrDuplicateMatch
	}
	r.matches[m.ID] = *m
	r.bySource[m.SourceRequestID] = m.ID
	return nil
}

func (r *MemoryRepository) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, apperrors.NotFound("match", id)
	}
	return &m, nil
}

func (r *MemoryRepository) ListMatches(_ context.Context, teamID uuid.UUID) ([]models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Match
	for _, m := range r.matches {
		if m.HomeTeamID == teamID || m.AwayTeamID == teamID {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *MemoryRepository) CompleteMatch(_ context.Context, matchID uuid.UUID, winner *uuid.UUID, at time.Time) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return nil, apperrors.NotFound("match", matchID)
	}
	if m.CompletedAt != nil {
		return nil, &apperrors.StateError{Entity: "match", ID: matchID.String(), Current: "completed", Op: "record result of"}
	}
	m.CompletedAt = &at
	m.WinnerTeamID = winner
	r.matches[matchID] = m

	for _, id := range []uuid.UUID{m.HomeTeamID, m.AwayTeamID} {
		t := r.teams[id]
		t.MatchesPlayed++
		if winner != nil && *winner == id {
			t.MatchesWon++
		}
		r.teams[id] = t
	}
	return &m, nil
}

func sortMatches(ms []models.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].MatchDate != ms[j].MatchDate {
			return ms[i].MatchDate < ms[j].MatchDate
		}
		return ms[i].CreatedAt.Before(ms[j].CreatedAt)
	})
}
