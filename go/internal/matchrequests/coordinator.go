// Package matchrequests lets a team captain propose a fixture to another team. Accepting a
// proposal schedules exactly one match.
package matchrequests

import (
	"context"
	"strings"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TeamDirectory is the part of the teams app match requests depend on.
type TeamDirectory interface {
	IsCaptain(ctx context.Context, actor, teamID uuid.UUID) (bool, error)
	CaptainedTeamIDs(ctx context.Context, actor uuid.UUID) ([]uuid.UUID, error)
	CreateMatchFromProposal(ctx context.Context, requestID, homeTeamID, awayTeamID uuid.UUID, p models.MatchProposal) (*models.Match, error)
}

// SendMatchRequest is the input for proposing a match.
type SendMatchRequest struct {
	RequestingTeamID uuid.UUID `json:"requesting_team_id"`
	ReceivingTeamID  uuid.UUID `json:"receiving_team_id"`
	ProposedDate     string    `json:"proposed_date"`
	ProposedTime     string    `json:"proposed_time"`
	GroundName       string    `json:"ground_name"`
	District         string    `json:"district"`
	Village          string    `json:"village"`
	MatchType        string    `json:"match_type"`
	Message          string    `json:"message,omitempty"`
}

// MatchRequest is the outward view of a match request.
type MatchRequest struct {
	ID               uuid.UUID            `json:"id"`
	RequestingTeamID uuid.UUID            `json:"requesting_team_id"`
	ReceivingTeamID  uuid.UUID            `json:"receiving_team_id"`
	SentBy           uuid.UUID            `json:"sent_by"`
	ProposedDate     models.Date          `json:"proposed_date"`
	ProposedTime     string               `json:"proposed_time"`
	GroundName       string               `json:"ground_name"`
	District         string               `json:"district"`
	Village          string               `json:"village"`
	MatchType        string               `json:"match_type"`
	Message          string               `json:"message,omitempty"`
	Status           models.RequestStatus `json:"status"`
	ResponseMessage  string               `json:"response_message,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	RespondedAt      *time.Time           `json:"responded_at,omitempty"`
}

func view(r *workflow.Request[models.MatchProposal]) *MatchRequest {
	p := r.Payload
	return &MatchRequest{
		ID:               r.ID,
		RequestingTeamID: r.FromParty,
		ReceivingTeamID:  r.ToParty,
		SentBy:           r.InitiatorID,
		ProposedDate:     p.ProposedDate,
		ProposedTime:     p.ProposedTime,
		GroundName:       p.GroundName,
		District:         p.District,
		Village:          p.Village,
		MatchType:        p.MatchType,
		Message:          p.Message,
		Status:           r.Status,
		ResponseMessage:  r.ResponseMessage,
		CreatedAt:        r.CreatedAt,
		RespondedAt:      r.RespondedAt,
	}
}

func views(rs []workflow.Request[models.MatchProposal]) []MatchRequest {
	out := make([]MatchRequest, len(rs))
	for i := range rs {
		out[i] = *view(&rs[i])
	}
	return out
}

type policy struct {
	teams TeamDirectory
}

func (policy) Kind() models.RequestKind { return models.RequestKindMatch }

// AuthorizeSend requires the sender to captain the requesting team and normalizes the
// proposed date and time.
func (p policy) AuthorizeSend(ctx context.Context, actor, from, to uuid.UUID, proposal *models.MatchProposal) error {
	if from == to {
		return apperrors.Invalid("receiving_team_id", to.String(), "a team cannot challenge itself")
	}
	date, err := models.ParseDate("proposed_date", string(proposal.ProposedDate))
	if err != nil {
		return err
	}
	clock, err := timeslot.ParseTimeField("proposed_time", proposal.ProposedTime)
	if err != nil {
		return err
	}

	captain, err := p.teams.IsCaptain(ctx, actor, from)
	if err != nil {
		return err
	}
	if !captain {
		return apperrors.NotAuthorized(actor, "send match requests for team "+from.String())
	}
	// The receiving team must exist.
	if _, err := p.teams.IsCaptain(ctx, actor, to); err != nil {
		return err
	}

	proposal.ProposedDate = date
	proposal.ProposedTime = clock
	proposal.GroundName = strings.TrimSpace(proposal.GroundName)
	proposal.District = strings.TrimSpace(proposal.District)
	proposal.Village = strings.TrimSpace(proposal.Village)
	proposal.MatchType = strings.TrimSpace(proposal.MatchType)
	return nil
}

// AuthorizeResponse allows only the captain of the receiving team.
func (p policy) AuthorizeResponse(ctx context.Context, actor uuid.UUID, r *workflow.Request[models.MatchProposal]) (bool, error) {
	return p.teams.IsCaptain(ctx, actor, r.ToParty)
}

// OnAccept schedules the match. Other pending requests between the teams are left alone.
func (p policy) OnAccept(ctx context.Context, r *workflow.Request[models.MatchProposal]) error {
	_, err := p.teams.CreateMatchFromProposal(ctx, r.ID, r.FromParty, r.ToParty, r.Payload)
	return err
}

// Coordinator runs match requests.
type Coordinator struct {
	wf    *workflow.Workflow[models.MatchProposal]
	teams TeamDirectory
}

// NewCoordinator wires the match request policy to a store.
func NewCoordinator(store workflow.Store[models.MatchProposal], teams TeamDirectory, events workflow.EventRecorder, tx sqlutil.Transactor, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		wf:    workflow.New[models.MatchProposal](store, policy{teams: teams}, events, tx, clock),
		teams: teams,
	}
}

func (c *Coordinator) Send(ctx context.Context, actor uuid.UUID, req SendMatchRequest) (*MatchRequest, error) {
	r, err := c.wf.Send(ctx, actor, workflow.SendRequest[models.MatchProposal]{
		From: req.RequestingTeamID,
		To:   req.ReceivingTeamID,
		Payload: models.MatchProposal{
			ProposedDate: models.Date(strings.TrimSpace(req.ProposedDate)),
			ProposedTime: req.ProposedTime,
			GroundName:   req.GroundName,
			District:     req.District,
			Village:      req.Village,
			MatchType:    req.MatchType,
			Message:      req.Message,
		},
	})
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*MatchRequest, error) {
	r, err := c.wf.Accept(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*MatchRequest, error) {
	r, err := c.wf.Reject(ctx, actor, id, responseMessage)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Cancel(ctx context.Context, actor, id uuid.UUID) (*MatchRequest, error) {
	r, err := c.wf.Cancel(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*MatchRequest, error) {
	r, err := c.wf.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(r), nil
}

// ListSent lists the match requests actor sent.
func (c *Coordinator) ListSent(ctx context.Context, actor uuid.UUID) ([]MatchRequest, error) {
	rs, err := c.wf.ListSent(ctx, actor)
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}

// ListReceived lists the match requests addressed to teams actor captains.
func (c *Coordinator) ListReceived(ctx context.Context, actor uuid.UUID) ([]MatchRequest, error) {
	teamIDs, err := c.teams.CaptainedTeamIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	rs, err := c.wf.ListReceived(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	return views(rs), nil
}
