package event

import "time"

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) share
// any instant: s2 < e1 && s1 < e2. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s2.Before(e1) && s1.Before(e2)
}

// FindConflict returns the first event assigned to assignFor whose interval
// overlaps [start,end), skipping completed events and the event identified by
// excludeID (used when updating an event against its own slot).
func FindConflict(events []Event, assignFor string, start, end time.Time, excludeID string) *Event {
	for i := range events {
		ev := &events[i]
		if ev.ID == excludeID || ev.AssignFor != assignFor || ev.Done {
			continue
		}
		if Overlaps(ev.Start, ev.End, start, end) {
			return ev
		}
	}
	return nil
}
