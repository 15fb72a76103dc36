package booking

import "time"

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share any instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// conflicting returns the first blocking event overlapping [start,end).
func conflicting(start, end time.Time, events []Event) (Event, bool) {
	for _, e := range events {
		if !e.Blocks() {
			continue
		}
		if Overlaps(start, end, e.Start, e.End) {
			return e, true
		}
	}
	return Event{}, false
}
