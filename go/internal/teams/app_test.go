package teams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func newTestApp() (*App, *outbox.MemoryRepository) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC))
	events := outbox.NewMemoryRepository()
	return NewApp(NewMemoryRepository(), sqlutil.DirectTransactor{}, outbox.NewApp(events, clock), clock), events
}

func eventTypes(repo *outbox.MemoryRepository) []string {
	var types []string
	for _, e := range repo.Events() {
		types = append(types, e.EventType)
	}
	return types
}

func TestCreateTeamCaptainIsMember(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp()
	captain := uuid.New()

	team, err := app.CreateTeam(ctx, captain, CreateTeamRequest{Name: "  Peradeniya XI ", District: "Kandy"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.Name != "Peradeniya XI" {
		t.Errorf("name = %q, want trimmed", team.Name)
	}
	if diff := cmp.Diff([]uuid.UUID{captain}, team.Members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	ok, err := app.IsCaptain(ctx, captain, team.ID)
	if err != nil || !ok {
		t.Errorf("IsCaptain(captain) = %v, %v", ok, err)
	}
	if _, err := app.IsCaptain(ctx, captain, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("IsCaptain(missing team) err = %v, want NotFound", err)
	}

	ids, err := app.CaptainedTeamIDs(ctx, captain)
	if err != nil {
		t.Fatalf("CaptainedTeamIDs: %v", err)
	}
	if diff := cmp.Diff([]uuid.UUID{team.ID}, ids); diff != "" {
		t.Errorf("captained teams mismatch (-want +got):\n%s", diff)
	}

	if _, err := app.CreateTeam(ctx, captain, CreateTeamRequest{Name: " "}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("blank name err = %v, want validation error", err)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	ctx := context.Background()
	app, events := newTestApp()
	team, err := app.CreateTeam(ctx, uuid.New(), CreateTeamRequest{Name: "Kandy Lions"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	player := uuid.New()

	for i, want := range []bool{true, false} {
		added, err := app.AddMember(ctx, team.ID, player)
		if err != nil {
			t.Fatalf("AddMember #%d: %v", i, err)
		}
		if added != want {
			t.Errorf("AddMember #%d added = %v, want %v", i, added, want)
		}
	}

	got, err := app.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if diff := cmp.Diff([]uuid.UUID{team.CaptainID, player}, got.Members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{outbox.TeamCreated, outbox.TeamMemberAdded}, eventTypes(events)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	if _, err := app.AddMember(ctx, uuid.New(), player); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("AddMember(missing team) err = %v, want NotFound", err)
	}
}

func TestMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp()
	homeCaptain, awayCaptain := uuid.New(), uuid.New()
	home, err := app.CreateTeam(ctx, homeCaptain, CreateTeamRequest{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	away, err := app.CreateTeam(ctx, awayCaptain, CreateTeamRequest{Name: "Away"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	requestID := uuid.New()
	proposal := models.MatchProposal{ProposedDate: "2025-11-29", ProposedTime: "14:00", GroundName: "Green Park", MatchType: "T20"}
	m, err := app.CreateMatchFromProposal(ctx, requestID, home.ID, away.ID, proposal)
	if err != nil {
		t.Fatalf("CreateMatchFromProposal: %v", err)
	}
	if m.MatchDate != "2025-11-29" || m.SourceRequestID != requestID {
		t.Errorf("match = %+v", m)
	}
	if _, err := app.CreateMatchFromProposal(ctx, requestID, home.ID, away.ID, proposal); !errors.Is(err, ErrDuplicateMatch) {
		t.Errorf("second match for request err = %v, want ErrDuplicateMatch", err)
	}

	winner := home.ID
	if _, err := app.RecordResult(ctx, uuid.New(), m.ID, RecordResultRequest{WinnerTeamID: &winner}); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("result by stranger err = %v, want NotAuthorized", err)
	}
	stranger := uuid.New()
	if _, err := app.RecordResult(ctx, awayCaptain, m.ID, RecordResultRequest{WinnerTeamID: &stranger}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("result with foreign winner err = %v, want validation error", err)
	}

	done, err := app.RecordResult(ctx, awayCaptain, m.ID, RecordResultRequest{WinnerTeamID: &winner})
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if done.CompletedAt == nil || *done.WinnerTeamID != home.ID {
		t.Errorf("completed match = %+v", done)
	}
	if _, err := app.RecordResult(ctx, homeCaptain, m.ID, RecordResultRequest{}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("second result err = %v, want invalid state", err)
	}

	profile, err := app.GetTeamWithMatches(ctx, home.ID)
	if err != nil {
		t.Fatalf("GetTeamWithMatches: %v", err)
	}
	if profile.Team.MatchesPlayed != 1 || profile.Team.MatchesWon != 1 || len(profile.Matches) != 1 {
		t.Errorf("home profile = %+v", profile)
	}
	awayTeam, err := app.GetTeam(ctx, away.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if awayTeam.MatchesPlayed != 1 || awayTeam.MatchesWon != 0 {
		t.Errorf("away counters = %d/%d, want 1/0", awayTeam.MatchesPlayed, awayTeam.MatchesWon)
	}
}
