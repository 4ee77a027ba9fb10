// Package joinrequests handles a player asking to join a team. The team's captain answers.
package joinrequests

import (
	"context"
	"strings"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Roster is the part of the teams app join requests depend on.
type Roster interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	IsCaptain(ctx context.Context, actor, teamID uuid.UUID) (bool, error)
	CaptainedTeamIDs(ctx context.Context, actor uuid.UUID) ([]uuid.UUID, error)
	AddMember(ctx context.Context, teamID, playerID uuid.UUID) (bool, error)
}

type SendJoinRequest struct {
	TeamID  uuid.UUID `json:"team_id"`
	Message string    `json:"message,omitempty"`
}

// JoinRequest is the outward view of a join request.
type JoinRequest struct {
	ID              uuid.UUID            `json:"id"`
	TeamID          uuid.UUID            `json:"team_id"`
	PlayerID        uuid.UUID            `json:"player_id"`
	Message         string               `json:"message,omitempty"`
	Status          models.RequestStatus `json:"status"`
	ResponseMessage string               `json:"response_message,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	RespondedAt     *time.Time           `json:"responded_at,omitempty"`
}

func view(r *workflow.Request[models.JoinPayload]) *JoinRequest {
	return &JoinRequest{
		ID:              r.ID,
		TeamID:          r.ToParty,
		PlayerID:        r.FromParty,
		Message:         r.Payload.Message,
		Status:          r.Status,
		ResponseMessage: r.ResponseMessage,
		CreatedAt:       r.CreatedAt,
		RespondedAt:     r.RespondedAt,
	}
}

func views(rs []workflow.Request[models.JoinPayload]) []JoinRequest {
	out := make([]JoinRequest, len(rs))
	for i := range rs {
		out[i] = *view(&rs[i])
	}
	return out
}

type policy struct {
	roster Roster
}

func (policy) Kind() models.RequestKind { return models.RequestKindJoin }

func (p policy) AuthorizeSend(ctx context.Context, actor, from, to uuid.UUID, payload *models.JoinPayload) error {
	if actor != from {
		return apperrors.NotAuthorized(actor, "send a join request on behalf of "+from.String())
	}
	team, err := p.roster.GetTeam(ctx, to)
	if err != nil {
		return err
	}
	if team.HasMember(actor) {
		return apperrors.Invalid("team_id", to.String(), "already a member of this team")
	}
	payload.Message = strings.TrimSpace(payload.Message)
	return nil
}

func (p policy) AuthorizeResponse(ctx context.Context, actor uuid.UUID, r *workflow.Request[models.JoinPayload]) (bool, error) {
	return p.roster.IsCaptain(ctx, actor, r.ToParty)
}

// OnAccept adds the player. Joining a team the player already belongs to is a no-op.
func (p policy) OnAccept(ctx context.Context, r *workflow.Request[models.JoinPayload]) error {
	_, err := p.roster.AddMember(ctx, r.ToParty, r.FromParty)
	return err
}

// Coordinator runs join requests.
type Coordinator struct {
	wf     *workflow.Workflow[models.JoinPayload]
	roster Roster
}

func NewCoordinator(store workflow.Store[models.JoinPayload], roster Roster, events workflow.EventRecorder, tx sqlutil.Transactor, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		wf:     workflow.New[models.JoinPayload](store, policy{roster: roster}, events, tx, clock),
		roster: roster,
	}
}

// Send files a join request from actor to a team.
func (c *Coordinator) Send(ctx context.Context, actor uuid.UUID, req SendJoinRequest) (*JoinRequest, error) {
	r, err := c.wf.Send(ctx, actor, workflow.SendRequest[models.JoinPayload]{
		From:    actor,
		To:      req.TeamID,
		Payload: models.JoinPayload{Message: req.Message},
	})
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*JoinRequest, error) {
	r, err := c.wf.Accept(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*JoinRequest, error) {
	r, err := c.wf.Reject(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Cancel(ctx context.Context, actor, id uuid.UUID) (*JoinRequest, error) {
	r, err := c.wf.Cancel(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	r, err := c.wf.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) ListSent(ctx context.Context, actor uuid.UUID) ([]JoinRequest, error) {
	rs, err := c.wf.ListSent(ctx, actor)
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}

// ListReceived lists join requests to the teams actor captains.
func (c *Coordinator) ListReceived(ctx context.Context, actor uuid.UUID) ([]JoinRequest, error) {
	teamIDs, err := c.roster.CaptainedTeamIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	rs, err := c.wf.ListReceived(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}
