package bookings

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// maxRangeDays caps ListByGroundAndRange so a single call stays bounded.
const maxRangeDays = 366

// Ledger is the authoritative record of bookings per ground and date.
type Ledger struct {
	repo    Repository
	grounds GroundDirectory
	events  EventRecorder
	clock   clockwork.Clock
}

func NewLedger(repo Repository, grounds GroundDirectory, events EventRecorder, clock clockwork.Clock) *Ledger {
	return &Ledger{
		repo:    repo,
		grounds: grounds,
		events:  events,
		clock:   clock,
	}
}

// Create reserves a slot. The overlap check and the insert happen under the (ground, date) lock.
func (l *Ledger) Create(ctx context.Context, actor, groundID uuid.UUID, req CreateBookingRequest) (*models.Booking, error) {
	date, slot, err := validateCreateRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := l.grounds.GetGround(ctx, groundID); err != nil {
		return nil, err
	}

	now := l.clock.Now().UTC()
	b := &models.Booking{
		ID:            uuid.New(),
		GroundID:      groundID,
		BookingDate:   date,
		TimeSlot:      slot,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Contact:       strings.TrimSpace(req.Contact),
		PaymentAmount: req.PaymentAmount,
		Status:        models.BookingStatusPending,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.PaymentAmount > 0 {
		b.Status = models.BookingStatusConfirmed
	}

	err = l.repo.WithinDay(ctx, groundID, date, func(ctx context.Context, day Day) error {
		for _, existing := range day.Bookings() {
			if existing.Status.Blocks() && timeslot.Overlaps(existing.TimeSlot, slot) {
				bookingConflicts.Inc()
				return &apperrors.ConflictError{
					ExistingID: existing.ID.String(),
					Existing:   existing.TimeSlot.String(),
					Requested:  slot.String(),
				}
			}
		}
		if err := day.Insert(ctx, b); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}
		return l.record(ctx, outbox.BookingCreated, actor, b)
	})
	if err != nil {
		return nil, err
	}

	bookingTransitions.WithLabelValues(string(b.Status)).Inc()
	log.Info().
		Str("booking_id", b.ID.String()).
		Str("ground_id", groundID.String()).
		Str("date", date.String()).
		Str("slot", slot.String()).
		Str("status", string(b.Status)).
		Msg("created booking")
	return b, nil
}

// ConfirmWithPayment records a payment against a pending booking and confirms it.
func (l *Ledger) ConfirmWithPayment(ctx context.Context, actor, id uuid.UUID, amount int64) (*models.Booking, error) {
	if amount <= 0 {
		return nil, apperrors.Invalid("payment_amount", fmt.Sprint(amount), "must be greater than 0")
	}
	return l.transition(ctx, actor, id, "confirm", outbox.BookingConfirmed, func(b *models.Booking, g *models.Ground) (bool, error) {
		if !mayManage(actor, b, g) {
			return false, apperrors.NotAuthorized(actor, "confirm booking "+b.ID.String())
		}
		if b.Status != models.BookingStatusPending {
			return false, stateError(b, "confirm")
		}
		b.PaymentAmount = amount
		b.Status = models.BookingStatusConfirmed
		return true, nil
	})
}

// Cancel releases the slot. Cancelling an already cancelled booking returns it unchanged.
func (l *Ledger) Cancel(ctx context.Context, actor, id uuid.UUID) (*models.Booking, error) {
	return l.transition(ctx, actor, id, "cancel", outbox.BookingCancelled, func(b *models.Booking, g *models.Ground) (bool, error) {
		if !mayManage(actor, b, g) {
			return false, apperrors.NotAuthorized(actor, "cancel booking "+b.ID.String())
		}
		switch b.Status {
		case models.BookingStatusCancelled:
			return false, nil
		case models.BookingStatusPending, models.BookingStatusConfirmed:
			b.Status = models.BookingStatusCancelled
			return true, nil
		default:
			return false, stateError(b, "cancel")
		}
	})
}

// Complete marks a confirmed booking as played. Only the ground owner may complete.
func (l *Ledger) Complete(ctx context.Context, actor, id uuid.UUID) (*models.Booking, error) {
	return l.transition(ctx, actor, id, "complete", outbox.BookingCompleted, func(b *models.Booking, g *models.Ground) (bool, error) {
		if g.OwnerID != actor {
			return false, apperrors.NotAuthorized(actor, "complete booking "+b.ID.String())
		}
		if b.Status != models.BookingStatusConfirmed {
			return false, stateError(b, "complete")
		}
		b.Status = models.BookingStatusCompleted
		return true, nil
	})
}

// Get retrieves a booking by ID
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return l.repo.GetBooking(ctx, id)
}

// ListByDate lists every booking of a ground on one day, in slot order.
func (l *Ledger) ListByDate(ctx context.Context, groundID uuid.UUID, date models.Date) ([]models.Booking, error) {
	return l.ListByGroundAndRange(ctx, groundID, date, date)
}

// ListByGroundAndRange lists bookings between from and to inclusive, ordered by date then start.
func (l *Ledger) ListByGroundAndRange(ctx context.Context, groundID uuid.UUID, from, to models.Date) ([]models.Booking, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	if _, err := l.grounds.GetGround(ctx, groundID); err != nil {
		return nil, err
	}
	bs, err := l.repo.ListByRange(ctx, groundID, DateRange{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	SortBookings(bs)
	return bs, nil
}

// ActiveDates lists the dates of r holding at least one pending or confirmed booking.
func (l *Ledger) ActiveDates(ctx context.Context, groundID uuid.UUID, r DateRange) ([]models.Date, error) {
	if _, err := l.grounds.GetGround(ctx, groundID); err != nil {
		return nil, err
	}
	dates, err := l.repo.ListActiveDates(ctx, groundID, r)
	if err != nil {
		return nil, fmt.Errorf("failed to list active dates: %w", err)
	}
	return dates, nil
}

// transition re-reads the booking under its day lock and applies fn. fn reports whether it
// changed anything; unchanged bookings are returned without a write or an event.
func (l *Ledger) transition(
	ctx context.Context,
	actor, id uuid.UUID,
	op, eventType string,
	fn func(b *models.Booking, g *models.Ground) (bool, error),
) (*models.Booking, error) {
	current, err := l.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := l.grounds.GetGround(ctx, current.GroundID)
	if err != nil {
		return nil, fmt.Errorf("ground of booking %s: %w", id, err)
	}

	var (
		result  models.Booking
		changed bool
	)
	err = l.repo.WithinDay(ctx, current.GroundID, current.BookingDate, func(ctx context.Context, day Day) error {
		b, ok := find(day.Bookings(), id)
		if !ok {
			return apperrors.NotFound("booking", id)
		}
		applied, err := fn(&b, g)
		if err != nil {
			return err
		}
		result, changed = b, applied
		if !changed {
			return nil
		}
		b.UpdatedAt = l.clock.Now().UTC()
		result = b
		if err := day.Update(ctx, &b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return l.record(ctx, eventType, actor, &b)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		bookingTransitions.WithLabelValues(string(result.Status)).Inc()
		log.Info().
			Str("booking_id", id.String()).
			Str("actor_id", actor.String()).
			Str("op", op).
			Str("status", string(result.Status)).
			Msg("booking transitioned")
	}
	return &result, nil
}

func (l *Ledger) record(ctx context.Context, eventType string, actor uuid.UUID, b *models.Booking) error {
	return l.events.Record(ctx, eventType, b.ID, b, map[string]string{
		outbox.HeaderGroundID:    b.GroundID.String(),
		outbox.HeaderBookingDate: b.BookingDate.String(),
		outbox.HeaderActorID:     actor.String(),
	})
}

// mayManage reports whether actor may confirm or cancel b: its creator or the ground owner.
func mayManage(actor uuid.UUID, b *models.Booking, g *models.Ground) bool {
	return actor == b.CreatedBy || actor == g.OwnerID
}

func stateError(b *models.Booking, op string) error {
	return &apperrors.StateError{Entity: "booking", ID: b.ID.String(), Current: string(b.Status), Op: op}
}

func find(bs []models.Booking, id uuid.UUID) (models.Booking, bool) {
	for _, b := range bs {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

// SortBookings orders bookings by date, then start time.
func SortBookings(bs []models.Booking) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].BookingDate != bs[j].BookingDate {
			return bs[i].BookingDate < bs[j].BookingDate
		}
		return bs[i].TimeSlot.Start < bs[j].TimeSlot.Start
	})
}

func validateCreateRequest(req CreateBookingRequest) (models.Date, timeslot.Slot, error) {
	date, err := models.ParseDate("booking_date", req.BookingDate)
	if err != nil {
		return "", timeslot.Slot{}, err
	}
	slot, err := timeslot.NewSlot(req.TimeSlot.Start, req.TimeSlot.End)
	if err != nil {
		return "", timeslot.Slot{}, err
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return "", timeslot.Slot{}, apperrors.Invalid("customer_name", req.CustomerName, "is required")
	}
	if strings.TrimSpace(req.Contact) == "" {
		return "", timeslot.Slot{}, apperrors.Invalid("contact", req.Contact, "is required")
	}
	if req.PaymentAmount < 0 {
		return "", timeslot.Slot{}, apperrors.Invalid("payment_amount", fmt.Sprint(req.PaymentAmount), "must not be negative")
	}
	return date, slot, nil
}

func validateRange(from, to models.Date) error {
	if _, err := models.ParseDate("from", from.String()); err != nil {
		return err
	}
	if _, err := models.ParseDate("to", to.String()); err != nil {
		return err
	}
	if to < from {
		return apperrors.Invalid("to", to.String(), "must not be before from "+from.String())
	}
	if from.AddDays(maxRangeDays) < to {
		return apperrors.Invalid("to", to.String(), fmt.Sprintf("range must not exceed %d days", maxRangeDays))
	}
	return nil
}
