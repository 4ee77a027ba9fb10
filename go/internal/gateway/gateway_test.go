package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

func startServer(t *testing.T) (*ConnectionManager, *httptest.Server) {
	t.Helper()
	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go cm.Start(ctx)

	r := mux.NewRouter()
	NewWebSocketHandler(cm).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return cm, srv
}

func dial(t *testing.T, srv *httptest.Server, groundID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/calendar?ground_id=" + groundID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, cm *ConnectionManager, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for cm.Stats().TotalConnections != n {
		if time.Now().After(deadline) {
			t.Fatalf("connections = %d, want %d", cm.Stats().TotalConnections, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func bookingEvent(groundID uuid.UUID) outbox.Event {
	return outbox.Event{
		ID:          uuid.New(),
		AggregateID: uuid.New(),
		EventType:   outbox.BookingCreated,
		Payload:     json.RawMessage(`{"id":"b6a1","time_slot":{"start":"09:00","end":"12:00"},"status":"confirmed","customer_name":"Kandy CC","contact":"0771234567"}`),
		Headers: map[string]string{
			outbox.HeaderGroundID:    groundID.String(),
			outbox.HeaderBookingDate: "2025-11-25",
		},
		CreatedAt: time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishReachesGroundSubscribers(t *testing.T) {
	cm, srv := startServer(t)
	ground, other := uuid.New(), uuid.New()
	watcher := dial(t, srv, ground)
	dial(t, srv, other)
	waitForConnections(t, cm, 2)

	if err := cm.Publish(context.Background(), bookingEvent(ground)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got CalendarEvent
	if err := watcher.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != outbox.BookingCreated || got.GroundID != ground.String() || got.Date != "2025-11-25" {
		t.Errorf("event = %+v", got)
	}

	stats := cm.Stats()
	if stats.ActiveGrounds != 2 || stats.GroundConnections[ground.String()] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCalendarEventFromFiltersEvents(t *testing.T) {
	ground := uuid.New()
	ce, id, ok := calendarEventFrom(bookingEvent(ground))
	if !ok || id != ground {
		t.Fatalf("booking event: ok = %v, ground = %s", ok, id)
	}
	if ce.Slot == nil || ce.Slot.BookingID != "b6a1" || ce.Slot.Start != "09:00" {
		t.Errorf("slot = %+v", ce.Slot)
	}

	noGround := bookingEvent(ground)
	noGround.Headers = nil
	if _, _, ok := calendarEventFrom(noGround); ok {
		t.Error("event without ground header converted")
	}

	teamEvent := bookingEvent(ground)
	teamEvent.EventType = outbox.TeamCreated
	if _, _, ok := calendarEventFrom(teamEvent); ok {
		t.Error("team event converted")
	}
}

func TestHandlerRejectsBadGround(t *testing.T) {
	_, srv := startServer(t)
	for _, q := range []string{"", "?ground_id=nope"} {
		resp, err := http.Get(srv.URL + "/ws/calendar" + q)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %q status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestCalendarFeedOmitsCustomerDetails(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC))
	events := outbox.NewApp(outbox.NewMemoryRepository(), clock)
	groundApp := grounds.NewApp(grounds.NewMemoryRepository(), sqlutil.DirectTransactor{}, events, clock)
	ledger := bookings.NewLedger(bookings.NewMemoryRepository(), groundApp, events, clock)

	owner := uuid.New()
	g, err := groundApp.CreateGround(ctx, owner, grounds.CreateGroundRequest{
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

	cm, srv := startServer(t)
	drain := func() {
		t.Helper()
		if _, err := events.ProcessUnsentEvents(ctx, 100, cm.Publish); err != nil {
			t.Fatalf("drain outbox: %v", err)
		}
	}
	drain()

	watcher := dial(t, srv, g.ID)
	waitForConnections(t, cm, 1)

	b, err := ledger.Create(ctx, owner, g.ID, bookings.CreateBookingRequest{
		BookingDate:   "2025-11-25",
		TimeSlot:      bookings.SlotInput{Start: "09:00", End: "12:00"},
		CustomerName:  "Kasun Perera",
		Contact:       "0771234567",
		PaymentAmount: 3000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	drain()

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := watcher.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	for _, secret := range []string{"Kasun Perera", "0771234567", "customer_name", "contact", "payment_amount", "created_by"} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("calendar message contains %q: %s", secret, raw)
		}
	}

	var got CalendarEvent
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := &SlotChange{BookingID: b.ID.String(), Start: "09:00", End: "12:00", Status: "confirmed"}
	if got.Type != outbox.BookingCreated || got.Slot == nil || *got.Slot != *want {
		t.Errorf("event = %+v, slot = %+v, want slot %+v", got, got.Slot, want)
	}
}
