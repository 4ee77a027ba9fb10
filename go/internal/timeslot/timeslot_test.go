package timeslot

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/google/go-cmp/cmp"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"6 PM", "18:00"},
		{"6pm", "18:00"},
		{"6:30 p.m.", "18:30"},
		{"12 AM", "00:00"},
		{"12 PM", "12:00"},
		{"12:45 am", "00:45"},
		{"11 am", "11:00"},
		{"9", "09:00"},
		{"9:05", "09:05"},
		{"18:30", "18:30"},
		{"00:00", "00:00"},
		{" 23:59 ", "23:59"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if err != nil {
				t.Fatalf("ParseTime(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTime(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimeRejects(t *testing.T) {
	for _, in := range []string{"", "25:00", "24", "10:60", "13 PM", "0 am", "noon", "6:5", "6::00", "-1", "18:30:00"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTime(in)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("ParseTime(%q) err = %v, want validation error", in, err)
			}
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) || verr.Field != "time" {
				t.Errorf("ParseTime(%q) err = %#v, want field time", in, err)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Slot
		want bool
	}{
		{"partial", Slot{At(9, 0), At(12, 0)}, Slot{At(11, 0), At(13, 0)}, true},
		{"touching", Slot{At(9, 0), At(12, 0)}, Slot{At(12, 0), At(15, 0)}, false},
		{"contained", Slot{At(9, 0), At(12, 0)}, Slot{At(10, 0), At(11, 0)}, true},
		{"identical", Slot{At(9, 0), At(12, 0)}, Slot{At(9, 0), At(12, 0)}, true},
		{"disjoint", Slot{At(6, 0), At(7, 0)}, Slot{At(20, 0), At(22, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestOverlapsMatchesMinuteSets(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	randomSlot := func() Slot {
		start := OpeningTime + TimeOfDay(r.Intn(int(ClosingTime-OpeningTime)))
		end := start + 1 + TimeOfDay(r.Intn(int(ClosingTime-start)))
		return Slot{start, end}
	}
	for i := 0; i < 2000; i++ {
		a, b := randomSlot(), randomSlot()
		shared := false
		for m := a.Start; m < a.End; m++ {
			if m >= b.Start && m < b.End {
				shared = true
				break
			}
		}
		if Overlaps(a, b) != shared {
			t.Fatalf("Overlaps(%s, %s) = %v, minute sets share = %v", a, b, !shared, shared)
		}
	}
}

func TestValidRange(t *testing.T) {
	tests := []struct {
		start, end TimeOfDay
		want       bool
	}{
		{At(6, 0), At(22, 0), true},
		{At(9, 0), At(9, 0), false},
		{At(10, 0), At(9, 0), false},
		{At(5, 59), At(9, 0), false},
		{At(21, 0), At(22, 1), false},
	}
	for _, tt := range tests {
		if got := IsValidRange(tt.start, tt.end); got != tt.want {
			t.Errorf("IsValidRange(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
	if !ValidateOperatingHours(ClosingTime) || ValidateOperatingHours(ClosingTime+1) {
		t.Error("closing time should be inclusive")
	}
}

func TestNewSlot(t *testing.T) {
	got, err := NewSlot("9 am", "12:00")
	if err != nil {
		t.Fatalf("NewSlot: %v", err)
	}
	if diff := cmp.Diff(Slot{At(9, 0), At(12, 0)}, got); diff != "" {
		t.Errorf("NewSlot mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		start, end string
		field      string
	}{
		{"25:00", "12:00", "start"},
		{"9:00", "bogus", "end"},
		{"5 am", "9 am", "start"},
		{"9 pm", "11 pm", "end"},
		{"12:00", "9:00", "end"},
	}
	for _, tt := range tests {
		_, err := NewSlot(tt.start, tt.end)
		var verr *apperrors.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("NewSlot(%q, %q) err = %v, want ValidationError", tt.start, tt.end, err)
		}
		if verr.Field != tt.field {
			t.Errorf("NewSlot(%q, %q) field = %q, want %q", tt.start, tt.end, verr.Field, tt.field)
		}
	}
}

func TestSlotJSON(t *testing.T) {
	var s Slot
	if err := json.Unmarshal([]byte(`{"start":"6 PM","end":"21:30"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"start":"18:00","end":"21:30"}` {
		t.Errorf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"start":"25:00","end":"21:30"}`), &s); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("unmarshal bad time err = %v, want validation error", err)
	}
}
