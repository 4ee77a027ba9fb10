package teams

import (
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// CreateTeamRequest represents the data needed to create a team
type CreateTeamRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	Village  string `json:"village"`
}

// RecordResultRequest names the winner of a match. A nil winner records a draw or no result.
type RecordResultRequest struct {
	WinnerTeamID *uuid.UUID `json:"winner_team_id,omitempty"`
}

// TeamWithMatches bundles a team with its fixtures for profile views.
type TeamWithMatches struct {
	Team    *models.Team   `json:"team"`
	Matches []models.Match `json:"matches"`
}
