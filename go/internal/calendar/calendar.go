// Package calendar projects the booking ledger into per-date markers for month views.
package calendar

import (
	"context"

	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// Marker flags a date that has at least one active booking. It carries no booking detail.
type Marker struct {
	Marked bool `json:"marked"`
}

// Source lists the dates with active bookings.
type Source interface {
	ActiveDates(ctx context.Context, groundID uuid.UUID, r bookings.DateRange) ([]models.Date, error)
}

// Aggregator reads straight from the ledger on every call.
type Aggregator struct {
	source Source
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// MarkedDates returns a marker for every date of the ground with a pending or confirmed booking.
func (a *Aggregator) MarkedDates(ctx context.Context, groundID uuid.UUID) (map[models.Date]Marker, error) {
	return a.MarkedDatesInRange(ctx, groundID, "", "")
}

// MarkedDatesInRange is MarkedDates restricted to from..to inclusive. Empty bounds are open.
func (a *Aggregator) MarkedDatesInRange(ctx context.Context, groundID uuid.UUID, from, to models.Date) (map[models.Date]Marker, error) {
	dates, err := a.source.ActiveDates(ctx, groundID, bookings.DateRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	out := make(map[models.Date]Marker, len(dates))
	for _, d := range dates {
		out[d] = Marker{Marked: true}
	}
	return out, nil
}
