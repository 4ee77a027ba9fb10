package grounds

import (
	"slices"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/timeslot"
)

var (
	afternoonStart = timeslot.At(12, 0)
	eveningStart   = timeslot.At(17, 0)
)

// PeriodOf classifies a start time into a pricing period.
func PeriodOf(t timeslot.TimeOfDay) models.Period {
	switch {
	case t < afternoonStart:
		return models.PeriodMorning
	case t < eveningStart:
		return models.PeriodAfternoon
	default:
		return models.PeriodEvening
	}
}

// QuoteSlot prices slot on date. The rate is taken from the period the slot starts in and
// charged pro rata by the minute; selected add-ons are flat charges.
func QuoteSlot(g *models.Ground, date models.Date, slot timeslot.Slot, addOns []string) (*Quote, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	rates, dayKind := g.Pricing.Weekday, "weekday"
	if date.IsWeekend() {
		rates, dayKind = g.Pricing.Weekend, "weekend"
	}
	period := PeriodOf(slot.Start)
	rate := rates.Rate(period)

	q := &Quote{
		Date:       date,
		TimeSlot:   slot,
		DayKind:    dayKind,
		Period:     period,
		HourlyRate: rate,
		SlotCharge: rate * int64(slot.Minutes()) / 60,
	}
	q.TotalAmount = q.SlotCharge

	for _, name := range slices.Sorted(slices.Values(addOns)) {
		charge, ok := g.AddOns[name]
		if !ok {
			return nil, apperrors.Invalid("add_ons", name, "not offered by this ground")
		}
		if q.AddOns == nil {
			q.AddOns = map[string]int64{}
		}
		if _, dup := q.AddOns[name]; dup {
			continue
		}
		q.AddOns[name] = charge
		q.TotalAmount += charge
	}
	return q, nil
}
