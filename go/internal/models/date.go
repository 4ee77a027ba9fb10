package models

import (
	"time"

	"github.com/criclink/criclink/go/internal/apperrors"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in "YYYY-MM-DD" form, without time zone.
type Date string

// ParseDate validates s as a calendar date. Failures name the given field.
func ParseDate(field, s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", apperrors.Invalid(field, s, "expected YYYY-MM-DD")
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Time returns midnight UTC of the day. Invalid dates yield the zero time.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

func (d Date) String() string { return string(d) }

// IsWeekend reports whether the day is a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	switch d.Time().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// AddDays returns the day n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}
