package timeslot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/criclink/criclink/go/internal/apperrors"
)

var (
	clock24 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
	clock12 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\.?$`)
)

// ParseTime normalizes a 24-hour ("18", "6:30", "18:30") or 12-hour ("6 PM", "6:30pm", "6 p.m.")
// time to "HH:mm".
func ParseTime(input string) (string, error) {
	t, err := Parse(input)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// ParseTimeField is ParseTime reporting failures against field.
func ParseTimeField(field, input string) (string, error) {
	t, err := parseField(field, input)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// Parse is ParseTime returning minutes since midnight.
func Parse(input string) (TimeOfDay, error) {
	return parseField("time", input)
}

func parseField(field, input string) (TimeOfDay, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, apperrors.Invalid(field, input, "is required")
	}

	if m := clock12.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, err := minutes(field, input, m[2])
		if err != nil {
			return 0, err
		}
		if hour < 1 || hour > 12 {
			return 0, apperrors.Invalid(field, input, "12-hour clock hour must be between 1 and 12")
		}
		// 12 AM is midnight, 12 PM is noon.
		hour %= 12
		if m[3] == "p" {
			hour += 12
		}
		return At(hour, minute), nil
	}

	if m := clock24.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return 0, apperrors.Invalid(field, input, "hour must be between 0 and 23")
		}
		minute, err := minutes(field, input, m[2])
		if err != nil {
			return 0, err
		}
		return At(hour, minute), nil
	}

	return 0, apperrors.Invalid(field, input, "expected HH:mm or a 12-hour time such as 6 PM")
}

func minutes(field, input, digits string) (int, error) {
	if digits == "" {
		return 0, nil
	}
	minute, _ := strconv.Atoi(digits)
	if minute > 59 {
		return 0, apperrors.Invalid(field, input, "minute must be between 0 and 59")
	}
	return minute, nil
}
