package timeslot

import (
	"encoding/json"
	"fmt"

	"github.com/criclink/criclink/go/internal/apperrors"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// Operating hours of every ground. Both bounds are inclusive for a single time,
// so a slot may end exactly at closing.
const (
	OpeningTime TimeOfDay = 6 * 60
	ClosingTime TimeOfDay = 22 * 60
)

// At builds a TimeOfDay from an hour and minute.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the time as "HH:mm".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts any input Parse accepts.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return apperrors.Invalid("time", string(data), "must be a string")
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ValidateOperatingHours reports whether t falls within opening and closing time.
func ValidateOperatingHours(t TimeOfDay) bool {
	return t >= OpeningTime && t <= ClosingTime
}

// IsValidRange reports whether start precedes end and both are within operating hours.
func IsValidRange(start, end TimeOfDay) bool {
	return start < end && ValidateOperatingHours(start) && ValidateOperatingHours(end)
}

// Slot is the half-open interval [Start, End) on some day.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Minutes returns the length of the slot.
func (s Slot) Minutes() int {
	return int(s.End - s.Start)
}

// Validate returns a field-specific validation error when the slot is not a legal booking range.
func (s Slot) Validate() error {
	if !ValidateOperatingHours(s.Start) {
		return apperrors.Invalid("start", s.Start.String(), fmt.Sprintf("must be between %s and %s", OpeningTime, ClosingTime))
	}
	if !ValidateOperatingHours(s.End) {
		return apperrors.Invalid("end", s.End.String(), fmt.Sprintf("must be between %s and %s", OpeningTime, ClosingTime))
	}
	if s.Start >= s.End {
		return apperrors.Invalid("end", s.End.String(), "must be after start "+s.Start.String())
	}
	return nil
}

// Overlaps reports whether two slots share any minute. Back-to-back slots do not overlap.
func Overlaps(a, b Slot) bool {
	return a.Start < b.End && b.Start < a.End
}

// NewSlot parses both inputs and validates the resulting range.
func NewSlot(startInput, endInput string) (Slot, error) {
	start, err := parseField("start", startInput)
	if err != nil {
		return Slot{}, err
	}
	end, err := parseField("end", endInput)
	if err != nil {
		return Slot{}, err
	}
	slot := Slot{Start: start, End: end}
	if err := slot.Validate(); err != nil {
		return Slot{}, err
	}
	return slot, nil
}
