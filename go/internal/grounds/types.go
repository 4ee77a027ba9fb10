package grounds

import (
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/timeslot"
)

// CreateGroundRequest represents the data needed to register a ground
type CreateGroundRequest struct {
	Name      string              `json:"name"`
	District  string              `json:"district"`
	Village   string              `json:"village"`
	Address   string              `json:"address"`
	Capacity  int                 `json:"capacity"`
	PitchType string              `json:"pitch_type"`
	Pricing   models.PricingTable `json:"pricing"`
	AddOns    map[string]int64    `json:"add_ons,omitempty"`
}

// UpdateGroundRequest replaces the editable fields of a ground
type UpdateGroundRequest = CreateGroundRequest

// Quote is the price of one slot on one day.
type Quote struct {
	Date        models.Date      `json:"date"`
	TimeSlot    timeslot.Slot    `json:"time_slot"`
	DayKind     string           `json:"day_kind"`
	Period      models.Period    `json:"period"`
	HourlyRate  int64            `json:"hourly_rate"`
	SlotCharge  int64            `json:"slot_charge"`
	AddOns      map[string]int64 `json:"add_ons,omitempty"`
	TotalAmount int64            `json:"total_amount"`
}
