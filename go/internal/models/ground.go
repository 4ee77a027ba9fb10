package models

import (
	"time"

	"github.com/google/uuid"
)

// Period is the part of the day a slot starts in, used for pricing.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// PeriodRates holds hourly rates in whole currency units.
type PeriodRates struct {
	Morning   int64 `json:"morning"`
	Afternoon int64 `json:"afternoon"`
	Evening   int64 `json:"evening"`
}

// Rate returns the hourly rate for p.
func (r PeriodRates) Rate(p Period) int64 {
	switch p {
	case PeriodMorning:
		return r.Morning
	case PeriodAfternoon:
		return r.Afternoon
	default:
		return r.Evening
	}
}

// PricingTable is keyed by weekday/weekend and then by period.
type PricingTable struct {
	Weekday PeriodRates `json:"weekday"`
	Weekend PeriodRates `json:"weekend"`
}

// Ground is a bookable cricket ground.
type Ground struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	Name      string           `json:"name"`
	District  string           `json:"district"`
	Village   string           `json:"village"`
	Address   string           `json:"address"`
	Capacity  int              `json:"capacity"`
	PitchType string           `json:"pitch_type"`
	Pricing   PricingTable     `json:"pricing"`
	AddOns    map[string]int64 `json:"add_ons,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
