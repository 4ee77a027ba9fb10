package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/teams"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func newFixture(t *testing.T) (*Coordinator, *teams.App, *models.Team) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC))
	events := outbox.NewApp(outbox.NewMemoryRepository(), clock)
	teamApp := teams.NewApp(teams.NewMemoryRepository(), sqlutil.DirectTransactor{}, events, clock)
	team, err := teamApp.CreateTeam(context.Background(), uuid.New(), teams.CreateTeamRequest{Name: "Jaffna Kings"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return NewCoordinator(workflow.NewMemoryStore[models.InvitationPayload](), teamApp, events, sqlutil.DirectTransactor{}, clock), teamApp, team
}

func TestInvitationAccepted(t *testing.T) {
	ctx := context.Background()
	coord, teamApp, team := newFixture(t)
	player := uuid.New()

	inv, err := coord.Send(ctx, team.CaptainID, SendInvitation{TeamID: team.ID, PlayerID: player, Message: " join us "})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := Invitation{
		ID:        inv.ID,
		TeamID:    team.ID,
		PlayerID:  player,
		InvitedBy: team.CaptainID,
		Message:   "join us",
		Status:    models.RequestStatusPending,
		CreatedAt: inv.CreatedAt,
	}
	if diff := cmp.Diff(want, *inv); diff != "" {
		t.Errorf("invitation mismatch (-want +got):\n%s", diff)
	}

	if _, err := coord.Accept(ctx, team.CaptainID, inv.ID, ""); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("accept by captain err = %v, want NotAuthorized", err)
	}
	if _, err := coord.Accept(ctx, player, inv.ID, "thanks"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got, err := teamApp.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if !got.HasMember(player) {
		t.Error("invited player not added")
	}

	received, err := coord.ListReceived(ctx, player)
	if err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if len(received) != 1 || received[0].Status != models.RequestStatusAccepted {
		t.Errorf("received = %+v", received)
	}
}

func TestInvitationRules(t *testing.T) {
	ctx := context.Background()
	coord, teamApp, team := newFixture(t)
	player := uuid.New()

	if _, err := coord.Send(ctx, player, SendInvitation{TeamID: team.ID, PlayerID: uuid.New()}); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("send by non-captain err = %v, want NotAuthorized", err)
	}
	if _, err := coord.Send(ctx, team.CaptainID, SendInvitation{TeamID: team.ID, PlayerID: team.CaptainID}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("invite existing member err = %v, want validation error", err)
	}

	inv, err := coord.Send(ctx, team.CaptainID, SendInvitation{TeamID: team.ID, PlayerID: player})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := coord.Cancel(ctx, player, inv.ID); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("cancel by invitee err = %v, want NotAuthorized", err)
	}
	if _, err := coord.Reject(ctx, player, inv.ID, "no thanks"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, err := teamApp.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got.HasMember(player) {
		t.Error("rejecting an invitation changed membership")
	}

	pending, err := coord.Send(ctx, team.CaptainID, SendInvitation{TeamID: team.ID, PlayerID: player})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := coord.Cancel(ctx, team.CaptainID, pending.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	sent, err := coord.ListSent(ctx, team.CaptainID)
	if err != nil {
		t.Fatalf("ListSent: %v", err)
	}
	statuses := []models.RequestStatus{}
	for _, s := range sent {
		statuses = append(statuses, s.Status)
	}
	byName := cmpopts.SortSlices(func(a, b models.RequestStatus) bool { return a < b })
	if diff := cmp.Diff([]models.RequestStatus{models.RequestStatusCancelled, models.RequestStatusRejected}, statuses, byName); diff != "" {
		t.Errorf("sent statuses mismatch (-want +got):\n%s", diff)
	}
}
