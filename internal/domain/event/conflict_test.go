package event

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"contained", at(10, 0), at(11, 0), at(10, 30), at(10, 45), true},
		{"straddles start", at(10, 0), at(11, 0), at(9, 30), at(10, 30), true},
		{"straddles end", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"touching end to start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start to end", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint before", at(10, 0), at(11, 0), at(8, 0), at(9, 0), false},
		{"disjoint after", at(10, 0), at(11, 0), at(12, 0), at(13, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Fatalf("Overlaps(%v) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestFindConflict(t *testing.T) {
	events := []Event{
		{ID: "e1", AssignFor: "u2", Start: at(10, 0), End: at(11, 0)},
		{ID: "e2", AssignFor: "u3", Start: at(10, 0), End: at(11, 0)},
		{ID: "e3", AssignFor: "u2", Start: at(12, 0), End: at(13, 0), Done: true},
	}

	if c := FindConflict(events, "u2", at(10, 30), at(10, 45), ""); c == nil || c.ID != "e1" {
		t.Fatalf("expected conflict with e1, got %+v", c)
	}
	if c := FindConflict(events, "u4", at(10, 30), at(10, 45), ""); c != nil {
		t.Fatalf("other assignees must not conflict, got %+v", c)
	}
	if c := FindConflict(events, "u2", at(10, 30), at(10, 45), "e1"); c != nil {
		t.Fatalf("excluded event must not conflict with itself, got %+v", c)
	}
	if c := FindConflict(events, "u2", at(12, 15), at(12, 30), ""); c != nil {
		t.Fatalf("completed events must not block scheduling, got %+v", c)
	}
}
