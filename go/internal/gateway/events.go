package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/google/uuid"
)

// CalendarEvent tells display clients that a ground's calendar changed on a date. Clients
// refetch marked dates or the day's bookings. Booking events also carry a SlotChange so a
// client can patch its view; nothing identifying the customer is ever sent.
type CalendarEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	GroundID  string      `json:"ground_id"`
	Date      string      `json:"date,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Slot      *SlotChange `json:"slot,omitempty"`
}

// SlotChange is the public part of a booking.
type SlotChange struct {
	BookingID string `json:"booking_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
}

// bookingPayload picks the public fields out of a booking.* payload. Decoding into this
// shape is what keeps customer name and contact off the wire.
type bookingPayload struct {
	ID       string `json:"id"`
	TimeSlot struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"time_slot"`
	Status string `json:"status"`
}

// calendarEventFrom converts an outbox event. Only ground-scoped events qualify.
func calendarEventFrom(e outbox.Event) (*CalendarEvent, uuid.UUID, bool) {
	raw, ok := e.Headers[outbox.HeaderGroundID]
	if !ok {
		return nil, uuid.Nil, false
	}
	groundID, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, false
	}
	isBooking := strings.HasPrefix(e.EventType, "booking.")
	if !isBooking && !strings.HasPrefix(e.EventType, "ground.") {
		return nil, uuid.Nil, false
	}

	ce := &CalendarEvent{
		ID:        e.ID.String(),
		Type:      e.EventType,
		GroundID:  groundID.String(),
		Date:      e.Headers[outbox.HeaderBookingDate],
		Timestamp: e.CreatedAt.UTC(),
	}
	if isBooking {
		var p bookingPayload
		if err := json.Unmarshal(e.Payload, &p); err == nil && p.ID != "" {
			ce.Slot = &SlotChange{
				BookingID: p.ID,
				Start:     p.TimeSlot.Start,
				End:       p.TimeSlot.End,
				Status:    p.Status,
			}
		}
	}
	return ce, groundID, true
}
