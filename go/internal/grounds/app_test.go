package grounds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func newTestApp() (*App, *outbox.MemoryRepository) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC))
	events := outbox.NewMemoryRepository()
	return NewApp(NewMemoryRepository(), sqlutil.DirectTransactor{}, outbox.NewApp(events, clock), clock), events
}

func sampleRequest() CreateGroundRequest {
	return CreateGroundRequest{
		Name:      "Green Park",
		District:  "Kandy",
		Village:   "Peradeniya",
		Capacity:  22,
		PitchType: "turf",
		Pricing: models.PricingTable{
			Weekday: models.PeriodRates{Morning: 1000, Afternoon: 1500, Evening: 2000},
			Weekend: models.PeriodRates{Morning: 1800, Afternoon: 2400, Evening: 3000},
		},
		AddOns: map[string]int64{"floodlights": 500, "umpire": 800},
	}
}

func TestCreateAndUpdateGround(t *testing.T) {
	ctx := context.Background()
	app, events := newTestApp()
	owner := uuid.New()

	g, err := app.CreateGround(ctx, owner, sampleRequest())
	if err != nil {
		t.Fatalf("CreateGround: %v", err)
	}
	if g.OwnerID != owner {
		t.Errorf("owner = %s, want %s", g.OwnerID, owner)
	}

	req := sampleRequest()
	req.Name = "Green Park North"
	if _, err := app.UpdateGround(ctx, uuid.New(), g.ID, req); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Errorf("update by stranger err = %v, want NotAuthorized", err)
	}
	if _, err := app.UpdateGround(ctx, owner, uuid.New(), req); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("update of missing ground err = %v, want NotFound", err)
	}

	updated, err := app.UpdateGround(ctx, owner, g.ID, req)
	if err != nil {
		t.Fatalf("UpdateGround: %v", err)
	}
	got, err := app.GetGround(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGround: %v", err)
	}
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Errorf("stored ground mismatch (-want +got):\n%s", diff)
	}

	var types []string
	for _, e := range events.Events() {
		types = append(types, e.EventType)
	}
	if diff := cmp.Diff([]string{outbox.GroundCreated, outbox.GroundUpdated}, types); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateGroundValidation(t *testing.T) {
	app, _ := newTestApp()
	tests := []struct {
		name  string
		edit  func(*CreateGroundRequest)
		field string
	}{
		{"missing name", func(r *CreateGroundRequest) { r.Name = " " }, "name"},
		{"negative capacity", func(r *CreateGroundRequest) { r.Capacity = -1 }, "capacity"},
		{"negative rate", func(r *CreateGroundRequest) { r.Pricing.Weekend.Evening = -5 }, "pricing"},
		{"negative add-on", func(r *CreateGroundRequest) { r.AddOns["umpire"] = -1 }, "add_ons"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			tt.edit(&req)
			_, err := app.CreateGround(context.Background(), uuid.New(), req)
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("err = %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp()
	g, err := app.CreateGround(ctx, uuid.New(), sampleRequest())
	if err != nil {
		t.Fatalf("CreateGround: %v", err)
	}

	tests := []struct {
		name   string
		date   models.Date
		slot   timeslot.Slot
		addOns []string
		period models.Period
		total  int64
	}{
		{"weekday morning", "2025-11-25", timeslot.Slot{Start: timeslot.At(9, 0), End: timeslot.At(12, 0)}, nil, models.PeriodMorning, 3000},
		{"weekday afternoon half hour", "2025-11-25", timeslot.Slot{Start: timeslot.At(12, 0), End: timeslot.At(13, 30)}, nil, models.PeriodAfternoon, 2250},
		{"weekend evening with add-ons", "2025-11-29", timeslot.Slot{Start: timeslot.At(18, 0), End: timeslot.At(20, 0)}, []string{"umpire", "floodlights"}, models.PeriodEvening, 7300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := app.Quote(ctx, g.ID, tt.date, tt.slot, tt.addOns)
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if q.Period != tt.period || q.TotalAmount != tt.total {
				t.Errorf("quote = %+v, want period %s total %d", q, tt.period, tt.total)
			}
		})
	}

	_, err = app.Quote(ctx, g.ID, "2025-11-25", timeslot.Slot{Start: timeslot.At(9, 0), End: timeslot.At(10, 0)}, []string{"scoreboard"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("unknown add-on err = %v, want validation error", err)
	}
	_, err = app.Quote(ctx, uuid.New(), "2025-11-25", timeslot.Slot{Start: timeslot.At(9, 0), End: timeslot.At(10, 0)}, nil)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing ground err = %v, want NotFound", err)
	}
}

func TestPeriodOf(t *testing.T) {
	for in, want := range map[timeslot.TimeOfDay]models.Period{
		timeslot.At(6, 0):   models.PeriodMorning,
		timeslot.At(11, 59): models.PeriodMorning,
		timeslot.At(12, 0):  models.PeriodAfternoon,
		timeslot.At(16, 59): models.PeriodAfternoon,
		timeslot.At(17, 0):  models.PeriodEvening,
	} {
		if got := PeriodOf(in); got != want {
			t.Errorf("PeriodOf(%s) = %s, want %s", in, got, want)
		}
	}
}
