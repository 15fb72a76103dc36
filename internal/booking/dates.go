package booking

import (
	"time"

	"booking-service/internal/timezone"
)

// WorkingDates lists the next HorizonDays working dates in the host zone,
// starting with today. The scan gives up after a bounded number of calendar
// days so a sparse working week cannot loop for long.
func (g *SlotGenerator) WorkingDates() []string {
	want := g.host.HorizonDays
	if want <= 0 || len(g.host.WorkingDays) == 0 {
		return []string{}
	}
	limit := want * 3
	if limit < 30 {
		limit = 30
	}

	today := g.now().In(g.host.Location)
	y, m, d := today.Date()
	out := make([]string, 0, want)
	for i := 0; i < limit && len(out) < want; i++ {
		// noon avoids DST edges when walking days
		day := time.Date(y, m, d+i, 12, 0, 0, 0, time.UTC)
		if g.host.IsWorkingDay(day.Weekday()) {
			out = append(out, day.Format(timezone.DateLayout))
		}
	}
	return out
}
