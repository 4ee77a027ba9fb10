package models

import (
	"time"

	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/uuid"
)

// BookingStatus defines the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Blocks reports whether a booking in this status holds its slot.
func (s BookingStatus) Blocks() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking is one reserved slot on a ground. Bookings are never deleted.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	GroundID      uuid.UUID     `json:"ground_id"`
	BookingDate   Date          `json:"booking_date"`
	TimeSlot      timeslot.Slot `json:"time_slot"`
	CustomerName  string        `json:"customer_name"`
	Contact       string        `json:"contact"`
	PaymentAmount int64         `json:"payment_amount"`
	Status        BookingStatus `json:"status"`
	CreatedBy     uuid.UUID     `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
