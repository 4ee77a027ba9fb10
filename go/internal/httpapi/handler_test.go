package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/calendar"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/invitations"
	"github.com/criclink/criclink/go/internal/joinrequests"
	"github.com/criclink/criclink/go/internal/matchrequests"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/teams"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC))
	events := outbox.NewApp(outbox.NewMemoryRepository(), clock)
	tx := sqlutil.DirectTransactor{}

	groundApp := grounds.NewApp(grounds.NewMemoryRepository(), tx, events, clock)
	ledger := bookings.NewLedger(bookings.NewMemoryRepository(), groundApp, events, clock)
	teamApp := teams.NewApp(teams.NewMemoryRepository(), tx, events, clock)

	h := NewHandler(Services{
		Grounds:       groundApp,
		Bookings:      ledger,
		Calendar:      calendar.NewAggregator(ledger),
		Teams:         teamApp,
		MatchRequests: matchrequests.NewCoordinator(workflow.NewMemoryStore[models.MatchProposal](), teamApp, events, tx, clock),
		JoinRequests:  joinrequests.NewCoordinator(workflow.NewMemoryStore[models.JoinPayload](), teamApp, events, tx, clock),
		Invitations:   invitations.NewCoordinator(workflow.NewMemoryStore[models.InvitationPayload](), teamApp, events, tx, clock),
	})
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// call sends body as JSON and decodes the response into out when out is non-nil.
func call(t *testing.T, srv *httptest.Server, method, path string, actor uuid.UUID, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if actor != uuid.Nil {
		req.Header.Set(ActorHeader, actor.String())
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createGround(t *testing.T, srv *httptest.Server, owner uuid.UUID) models.Ground {
	t.Helper()
	var g models.Ground
	req := map[string]any{
		"name":     "Green Park",
		"district": "Kandy",
		"pricing": map[string]any{
			"weekday": map[string]int64{"morning": 1000, "afternoon": 1500, "evening": 2000},
			"weekend": map[string]int64{"morning": 1800, "afternoon": 2400, "evening": 3000},
		},
	}
	if code := call(t, srv, http.MethodPost, "/api/v1/grounds", owner, req, &g); code != http.StatusCreated {
		t.Fatalf("create ground status = %d", code)
	}
	return g
}

func booking(date, start, end string, amount int64) bookings.CreateBookingRequest {
	return bookings.CreateBookingRequest{
		BookingDate:   date,
		TimeSlot:      bookings.SlotInput{Start: start, End: end},
		CustomerName:  "Kandy CC",
		Contact:       "0771234567",
		PaymentAmount: amount,
	}
}

func TestBookingConflictScenario(t *testing.T) {
	srv := newTestServer(t)
	owner := uuid.New()
	g := createGround(t, srv, owner)
	path := "/api/v1/grounds/" + g.ID.String() + "/bookings"

	var first models.Booking
	if code := call(t, srv, http.MethodPost, path, owner, booking("2025-11-25", "09:00", "12:00", 3000), &first); code != http.StatusCreated {
		t.Fatalf("first booking status = %d", code)
	}
	if first.Status != models.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", first.Status)
	}

	var conflict errorResponse
	if code := call(t, srv, http.MethodPost, path, owner, booking("2025-11-25", "11:00", "13:00", 0), &conflict); code != http.StatusConflict {
		t.Fatalf("overlapping booking status = %d, want 409", code)
	}
	if conflict.Code != "conflict" || conflict.ConflictsWith != first.ID.String() {
		t.Errorf("conflict body = %+v", conflict)
	}

	var second models.Booking
	if code := call(t, srv, http.MethodPost, path, owner, booking("2025-11-25", "12:00", "15:00", 0), &second); code != http.StatusCreated {
		t.Fatalf("back-to-back booking status = %d", code)
	}
	if second.Status != models.BookingStatusPending {
		t.Errorf("unpaid status = %s, want pending", second.Status)
	}

	var marks map[string]json.RawMessage
	if code := call(t, srv, http.MethodGet, "/api/v1/grounds/"+g.ID.String()+"/calendar", uuid.Nil, nil, &marks); code != http.StatusOK {
		t.Fatalf("calendar status = %d", code)
	}
	if _, ok := marks["2025-11-25"]; !ok || len(marks) != 1 {
		t.Errorf("marked dates = %v, want only 2025-11-25", marks)
	}

	var day []models.Booking
	if code := call(t, srv, http.MethodGet, path+"?date=2025-11-25", uuid.Nil, nil, &day); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(day) != 2 || day[0].ID != first.ID {
		t.Errorf("day bookings = %+v", day)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	owner := uuid.New()
	g := createGround(t, srv, owner)
	path := "/api/v1/grounds/" + g.ID.String() + "/bookings"

	if code := call(t, srv, http.MethodPost, path, uuid.Nil, booking("2025-11-25", "09:00", "12:00", 0), nil); code != http.StatusUnauthorized {
		t.Errorf("missing actor status = %d, want 401", code)
	}

	var verr errorResponse
	if code := call(t, srv, http.MethodPost, path, owner, booking("2025-11-25", "5 am", "9 am", 0), &verr); code != http.StatusBadRequest {
		t.Errorf("out-of-hours status = %d, want 400", code)
	}
	if verr.Field != "start" {
		t.Errorf("validation field = %q, want start", verr.Field)
	}

	if code := call(t, srv, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), uuid.Nil, nil, nil); code != http.StatusNotFound {
		t.Errorf("missing booking status = %d, want 404", code)
	}
	for _, q := range []string{"", "?from=2025-11-01&to=2025-11-30"} {
		if code := call(t, srv, http.MethodGet, "/api/v1/grounds/"+uuid.NewString()+"/calendar"+q, uuid.Nil, nil, nil); code != http.StatusNotFound {
			t.Errorf("calendar of unknown ground%s status = %d, want 404", q, code)
		}
	}

	var b models.Booking
	if code := call(t, srv, http.MethodPost, path, owner, booking("2025-11-26", "09:00", "10:00", 0), &b); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	var state errorResponse
	if code := call(t, srv, http.MethodPost, "/api/v1/bookings/"+b.ID.String()+"/complete", owner, nil, &state); code != http.StatusConflict {
		t.Errorf("complete pending status = %d, want 409", code)
	}
	if state.Code != "invalid_state" {
		t.Errorf("code = %q, want invalid_state", state.Code)
	}
	if code := call(t, srv, http.MethodPost, "/api/v1/bookings/"+b.ID.String()+"/cancel", uuid.New(), nil, nil); code != http.StatusForbidden {
		t.Errorf("cancel by stranger status = %d, want 403", code)
	}
}

func TestJoinRequestOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	captain, player := uuid.New(), uuid.New()

	var team models.Team
	if code := call(t, srv, http.MethodPost, "/api/v1/teams", captain, teams.CreateTeamRequest{Name: "Kandy Lions"}, &team); code != http.StatusCreated {
		t.Fatalf("create team status = %d", code)
	}

	var jr joinrequests.JoinRequest
	if code := call(t, srv, http.MethodPost, "/api/v1/join-requests", player, joinrequests.SendJoinRequest{TeamID: team.ID}, &jr); code != http.StatusCreated {
		t.Fatalf("send status = %d", code)
	}

	var received []joinrequests.JoinRequest
	if code := call(t, srv, http.MethodGet, "/api/v1/join-requests?direction=received", captain, nil, &received); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(received) != 1 || received[0].ID != jr.ID {
		t.Errorf("received = %+v", received)
	}

	acceptPath := "/api/v1/join-requests/" + jr.ID.String() + "/accept"
	if code := call(t, srv, http.MethodPost, acceptPath, player, nil, nil); code != http.StatusForbidden {
		t.Errorf("self-accept status = %d, want 403", code)
	}
	var accepted joinrequests.JoinRequest
	if code := call(t, srv, http.MethodPost, acceptPath, captain, respondRequest{ResponseMessage: "Welcome"}, &accepted); code != http.StatusOK {
		t.Fatalf("accept status = %d", code)
	}
	if accepted.ResponseMessage != "Welcome" || accepted.Status != models.RequestStatusAccepted {
		t.Errorf("accepted = %+v", accepted)
	}
	if code := call(t, srv, http.MethodPost, acceptPath, captain, nil, nil); code != http.StatusConflict {
		t.Errorf("second accept status = %d, want 409", code)
	}

	var profile teams.TeamWithMatches
	if code := call(t, srv, http.MethodGet, "/api/v1/teams/"+team.ID.String(), uuid.Nil, nil, &profile); code != http.StatusOK {
		t.Fatalf("get team status = %d", code)
	}
	if !profile.Team.HasMember(player) || len(profile.Team.Members) != 2 {
		t.Errorf("members = %v", profile.Team.Members)
	}

	if code := call(t, srv, http.MethodGet, "/api/v1/join-requests?direction=sideways", player, nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d, want 400", code)
	}
}
