package bookings

import (
	"context"

	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// SlotInput carries the raw start and end times as typed by the caller.
type SlotInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateBookingRequest represents the data needed to reserve a slot
type CreateBookingRequest struct {
	BookingDate   string    `json:"booking_date"`
	TimeSlot      SlotInput `json:"time_slot"`
	CustomerName  string    `json:"customer_name"`
	Contact       string    `json:"contact"`
	PaymentAmount int64     `json:"payment_amount"`
}

// Day is the locked view of one (ground, date) ledger key inside WithinDay.
// Writes made through it commit only if the surrounding callback succeeds.
type Day interface {
	Bookings() []models.Booking
	Insert(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
}

// DateRange bounds a listing. A zero From or To leaves that side open.
type DateRange struct {
	From models.Date
	To   models.Date
}

// Contains reports whether d falls within the range.
func (r DateRange) Contains(d models.Date) bool {
	if r.From != "" && d < r.From {
		return false
	}
	if r.To != "" && d > r.To {
		return false
	}
	return true
}

// Repository defines what the ledger needs from booking storage
type Repository interface {
	// WithinDay runs fn with exclusive access to the bookings of (groundID, date).
	WithinDay(ctx context.Context, groundID uuid.UUID, date models.Date, fn func(ctx context.Context, day Day) error) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByRange(ctx context.Context, groundID uuid.UUID, r DateRange) ([]models.Booking, error)
	ListActiveDates(ctx context.Context, groundID uuid.UUID, r DateRange) ([]models.Date, error)
}

// GroundDirectory resolves the ground a booking belongs to.
type GroundDirectory interface {
	GetGround(ctx context.Context, id uuid.UUID) (*models.Ground, error)
}

// EventRecorder appends domain events to the outbox within the caller's unit of work.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any, headers map[string]string) error
}
