package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Team is a cricket team. The captain is always a member and never changes.
type Team struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	District      string      `json:"district"`
	Village       string      `json:"village"`
	CaptainID     uuid.UUID   `json:"captain_id"`
	Members       []uuid.UUID `json:"members"`
	MatchesPlayed int         `json:"matches_played"`
	MatchesWon    int         `json:"matches_won"`
	CreatedAt     time.Time   `json:"created_at"`
}

// HasMember reports whether playerID is on the roster.
func (t *Team) HasMember(playerID uuid.UUID) bool {
	return slices.Contains(t.Members, playerID)
}

// Match is a fixture between two teams, produced by an accepted match request.
type Match struct {
	ID              uuid.UUID  `json:"id"`
	HomeTeamID      uuid.UUID  `json:"home_team_id"`
	AwayTeamID      uuid.UUID  `json:"away_team_id"`
	MatchDate       Date       `json:"match_date"`
	MatchTime       string     `json:"match_time"`
	GroundName      string     `json:"ground_name"`
	District        string     `json:"district"`
	Village         string     `json:"village"`
	MatchType       string     `json:"match_type"`
	SourceRequestID uuid.UUID  `json:"source_request_id"`
	WinnerTeamID    *uuid.UUID `json:"winner_team_id,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
