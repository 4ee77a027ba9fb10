// Package invitations handles a captain inviting a player onto their team. Only the invited
// player may answer.
package invitations

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

type Roster interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	AddMember(ctx context.Context, teamID, playerID uuid.UUID) (bool, error)
}

type SendInvitation struct {
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Message  string    `json:"message,omitempty"`
}

// Invitation is the outward view of a team invitation.
type Invitation struct {
	ID              uuid.UUID            `json:"id"`
	TeamID          uuid.UUID            `json:"team_id"`
	PlayerID        uuid.UUID            `json:"player_id"`
	InvitedBy       uuid.UUID            `json:"invited_by"`
	Message         string               `json:"message,omitempty"`
	Status          models.RequestStatus `json:"status"`
	ResponseMessage string               `json:"response_message,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	RespondedAt     *time.Time           `json:"responded_at,omitempty"`
}

func view(r *workflow.Request[models.InvitationPayload]) *Invitation {
	return &Invitation{
		ID:              r.ID,
		TeamID:          r.FromParty,
		PlayerID:        r.ToParty,
		InvitedBy:       r.Payload.InvitedBy,
		Message:         r.Payload.Message,
		Status:          r.Status,
		ResponseMessage: r.ResponseMessage,
		CreatedAt:       r.CreatedAt,
		RespondedAt:     r.RespondedAt,
	}
}

func views(rs []workflow.Request[models.InvitationPayload]) []Invitation {
	out := make([]Invitation, len(rs))
	for i := range rs {
		out[i] = *view(&rs[i])
	}
	return out
}

type policy struct {
	roster Roster
}

func (policy) Kind() models.RequestKind { return models.RequestKindInvitation }

func (p policy) AuthorizeSend(ctx context.Context, actor, from, to uuid.UUID, payload *models.InvitationPayload) error {
	team, err := p.roster.GetTeam(ctx, from)
	if err != nil {
		return err
	}
	if team.CaptainID != actor {
		return apperrors.NotAuthorized(actor, "invite players to team "+from.String())
	}
	if team.HasMember(to) {
		return apperrors.Invalid("player_id", to.String(), "already a member of this team")
	}
	payload.InvitedBy = actor
	payload.Message = strings.TrimSpace(payload.Message)
	return nil
}

// AuthorizeResponse allows only the invited player.
func (policy) AuthorizeResponse(_ context.Context, actor uuid.UUID, r *workflow.Request[models.InvitationPayload]) (bool, error) {
	return actor == r.ToParty, nil
}

func (p policy) OnAccept(ctx context.Context, r *workflow.Request[models.InvitationPayload]) error {
	_, err := p.roster.AddMember(ctx, r.FromParty, r.ToParty)
	return err
}

// Coordinator runs team invitations.
type Coordinator struct {
	wf *workflow.Workflow[models.InvitationPayload]
}

func NewCoordinator(store workflow.Store[models.InvitationPayload], roster Roster, events workflow.EventRecorder, tx sqlutil.Transactor, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		wf: workflow.New[models.InvitationPayload](store, policy{roster: roster}, events, tx, clock),
	}
}

func (c *Coordinator) Send(ctx context.Context, actor uuid.UUID, req SendInvitation) (*Invitation, error) {
	r, err := c.wf.Send(ctx, actor, workflow.SendRequest[models.InvitationPayload]{
		From:    req.TeamID,
		To:      req.PlayerID,
		Payload: models.InvitationPayload{Message: req.Message},
	})
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*Invitation, error) {
	r, err := c.wf.Accept(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*Invitation, error) {
	r, err := c.wf.Reject(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Cancel(ctx context.Context, actor, id uuid.UUID) (*Invitation, error) {
	r, err := c.wf.Cancel(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	r, err := c.wf.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

// ListSent lists invitations actor sent as captain.
func (c *Coordinator) ListSent(ctx context.Context, actor uuid.UUID) ([]Invitation, error) {
	rs, err := c.wf.ListSent(ctx, actor)
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}

// ListReceived lists invitations addressed to actor.
func (c *Coordinator) ListReceived(ctx context.Context, actor uuid.UUID) ([]Invitation, error) {
	rs, err := c.wf.ListReceived(ctx, []uuid.UUID{actor})
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}
