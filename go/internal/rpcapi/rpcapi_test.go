package rpcapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/joinrequests"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/teams"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type fixture struct {
	srv     *httptest.Server
	grounds *grounds.App
	teams   *teams.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC))
	events := outbox.NewApp(outbox.NewMemoryRepository(), clock)
	tx := sqlutil.DirectTransactor{}
	groundApp := grounds.NewApp(grounds.NewMemoryRepository(), tx, events, clock)
	ledger := bookings.NewLedger(bookings.NewMemoryRepository(), groundApp, events, clock)
	teamApp := teams.NewApp(teams.NewMemoryRepository(), tx, events, clock)
	joins := joinrequests.NewCoordinator(workflow.NewMemoryStore[models.JoinPayload](), teamApp, events, tx, clock)

	mux := http.NewServeMux()
	mux.Handle(NewBookingServiceHandler(ledger))
	mux.Handle(NewRequestServiceHandler(JoinRequestServiceName, joins))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, grounds: groundApp, teams: teamApp}
}

func newClient[Req, Res any](f *fixture, procedure string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](f.srv.Client(), f.srv.URL+procedure, connect.WithCodec(JSONCodec{}))
}

func as[T any](actor uuid.UUID, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if actor != uuid.Nil {
		req.Header().Set(ActorHeader, actor.String())
	}
	return req
}

func wantCode(t *testing.T, err error, code connect.Code) *connect.Error {
	t.Helper()
	var ce *connect.Error
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want connect error %s", err, code)
	}
	if ce.Code() != code {
		t.Fatalf("code = %s, want %s (%v)", ce.Code(), code, err)
	}
	return ce
}

func TestBookingServiceOverConnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := uuid.New()
	g, err := f.grounds.CreateGround(ctx, owner, grounds.CreateGroundRequest{
		Name:     "Green Park",
		District: "Kandy",
		Pricing: models.PricingTable{
			Weekday: models.PeriodRates{Morning: 1000, Afternoon: 1500, Evening: 2000},
			Weekend: models.PeriodRates{Morning: 1800, Afternoon: 2400, Evening: 3000},
		},
	})
	if err != nil {
		t.Fatalf("CreateGround: %v", err)
	}

	create := newClient[CreateBookingRequest, models.Booking](f, CreateBookingProcedure)
	cancel := newClient[BookingRequest, models.Booking](f, CancelBookingProcedure)
	get := newClient[BookingRequest, models.Booking](f, GetBookingProcedure)

	req := func(start, end string) *CreateBookingRequest {
		return &CreateBookingRequest{GroundID: g.ID, CreateBookingRequest: bookings.CreateBookingRequest{
			BookingDate:   "2025-11-25",
			TimeSlot:      bookings.SlotInput{Start: start, End: end},
			CustomerName:  "Kandy CC",
			Contact:       "0771234567",
			PaymentAmount: 3000,
		}}
	}

	_, err = create.CallUnary(ctx, as(uuid.Nil, req("09:00", "12:00")))
	wantCode(t, err, connect.CodeUnauthenticated)

	first, err := create.CallUnary(ctx, as(owner, req("09:00", "12:00")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Msg.Status != models.BookingStatusConfirmed || first.Msg.GroundID != g.ID {
		t.Errorf("booking = %+v", first.Msg)
	}

	_, err = create.CallUnary(ctx, as(owner, req("11:00", "14:00")))
	ce := wantCode(t, err, connect.CodeAlreadyExists)
	if got := ce.Meta().Get(ConflictsWithKey); got != first.Msg.ID.String() {
		t.Errorf("%s = %q, want %s", ConflictsWithKey, got, first.Msg.ID)
	}

	_, err = create.CallUnary(ctx, as(owner, req("12:00", "09:00")))
	ce = wantCode(t, err, connect.CodeInvalidArgument)
	if ce.Meta().Get(FieldKey) == "" {
		t.Error("validation error carries no field")
	}

	_, err = cancel.CallUnary(ctx, as(uuid.New(), &BookingRequest{BookingID: first.Msg.ID}))
	wantCode(t, err, connect.CodePermissionDenied)

	cancelled, err := cancel.CallUnary(ctx, as(owner, &BookingRequest{BookingID: first.Msg.ID}))
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Msg.Status != models.BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Msg.Status)
	}

	// A cancelled booking no longer blocks the slot.
	if _, err := create.CallUnary(ctx, as(owner, req("11:00", "14:00"))); err != nil {
		t.Fatalf("Create after cancel: %v", err)
	}

	_, err = get.CallUnary(ctx, as(owner, &BookingRequest{BookingID: uuid.New()}))
	wantCode(t, err, connect.CodeNotFound)
}

func TestJoinRequestServiceOverConnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	captain := uuid.New()
	team, err := f.teams.CreateTeam(ctx, captain, teams.CreateTeamRequest{Name: "Kandy Lions"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	player := uuid.New()
	prefix := "/" + JoinRequestServiceName + "/"

	send := newClient[joinrequests.SendJoinRequest, joinrequests.JoinRequest](f, prefix+"Send")
	accept := newClient[RespondRequest, joinrequests.JoinRequest](f, prefix+"Accept")

	sent, err := send.CallUnary(ctx, as(player, &joinrequests.SendJoinRequest{TeamID: team.ID, Message: "I keep wicket"}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Msg.Status != models.RequestStatusPending || sent.Msg.PlayerID != player {
		t.Errorf("sent = %+v", sent.Msg)
	}

	_, err = accept.CallUnary(ctx, as(player, &RespondRequest{ID: sent.Msg.ID}))
	wantCode(t, err, connect.CodePermissionDenied)

	accepted, err := accept.CallUnary(ctx, as(captain, &RespondRequest{ID: sent.Msg.ID, ResponseMessage: "welcome"}))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Msg.Status != models.RequestStatusAccepted || accepted.Msg.ResponseMessage != "welcome" {
		t.Errorf("accepted = %+v", accepted.Msg)
	}

	_, err = accept.CallUnary(ctx, as(captain, &RespondRequest{ID: sent.Msg.ID}))
	wantCode(t, err, connect.CodeFailedPrecondition)

	got, err := f.teams.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if !got.HasMember(player) {
		t.Errorf("player %s not added to %+v", player, got.Members)
	}
}
