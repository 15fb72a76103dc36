package booking

import (
	"time"

	"booking-service/internal/config"
	"booking-service/internal/timezone"
)

// Candidate is a slot inside the comfort window with its instants resolved.
type Candidate struct {
	HostTime string
	Start    time.Time
	End      time.Time
}

// SlotGenerator expands the host's comfort window into slots for a date.
type SlotGenerator struct {
	host config.Host
	now  func() time.Time
}

func NewSlotGenerator(host config.Host, now func() time.Time) *SlotGenerator {
	if now == nil {
		now = time.Now
	}
	return &SlotGenerator{host: host, now: now}
}

// Candidates returns the slots for date that are still far enough ahead of
// now. Every weekday gets the same grid; the working-day list only narrows the
// date picker. Slots inside the lead time are omitted rather than marked
// unavailable, so an empty result just means nothing is left to offer that day.
func (g *SlotGenerator) Candidates(date string) ([]Candidate, error) {
	day, err := timezone.ParseDate(date)
	if err != nil {
		return nil, err
	}
	threshold := g.threshold()
	all := g.grid(day)
	out := make([]Candidate, 0, len(all))
	for _, c := range all {
		if c.Start.Before(threshold) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Eligible applies the lead-time rule to a single slot start.
func (g *SlotGenerator) Eligible(start time.Time) bool {
	return !start.Before(g.threshold())
}

// OnGrid reports whether clock is a slot start of the comfort window.
func (g *SlotGenerator) OnGrid(clock timezone.Clock) bool {
	step := g.host.SlotGranularityMinutes
	start := g.host.ComfortStart.Minutes()
	end := g.host.ComfortEnd.Minutes()
	m := clock.Minutes()
	if m < start || m+step > end {
		return false
	}
	return (m-start)%step == 0
}

func (g *SlotGenerator) threshold() time.Time {
	return g.now().Add(g.host.MinimumLead())
}

// grid chunks the comfort window of day into slots; a slot is emitted only if
// it ends at or before the end of the window.
func (g *SlotGenerator) grid(day time.Time) []Candidate {
	step := g.host.SlotGranularityMinutes
	if step <= 0 {
		return nil
	}
	slotLen := g.host.Granularity()
	startMin := g.host.ComfortStart.Minutes()
	endMin := g.host.ComfortEnd.Minutes()

	var out []Candidate
	for m := startMin; m+step <= endMin; m += step {
		clock := timezone.ClockFromMinutes(m)
		start := timezone.At(day, clock, g.host.Location)
		out = append(out, Candidate{
			HostTime: clock.String(),
			Start:    start,
			End:      start.Add(slotLen),
		})
	}
	return out
}
