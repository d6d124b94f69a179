package agenda

import (
	"fmt"
	"time"

	"orgcal/internal/model"
)

// Week is a seven-day window [Start, End).
type Week struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the week containing t, starting on weekStart at midnight in
// t's location.
func WeekOf(t time.Time, weekStart time.Weekday) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	start := day.AddDate(0, 0, -offset)
	return Week{Start: start, End: start.AddDate(0, 0, 7)}
}

// Next returns the following week.
func (w Week) Next() Week {
	return Week{Start: w.Start.AddDate(0, 0, 7), End: w.End.AddDate(0, 0, 7)}
}

// Prev returns the preceding week.
func (w Week) Prev() Week {
	return Week{Start: w.Start.AddDate(0, 0, -7), End: w.End.AddDate(0, 0, -7)}
}

// Entries returns the agenda entries inside w.
func (w Week) Entries(a Agenda) []model.Occurrence {
	return a.Window(w.Start, w.End)
}

func (w Week) String() string {
	year, week := w.Start.ISOWeek()
	last := w.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%d-W%02d (%s - %s)", year, week, w.Start.Format("Jan 02"), last.Format("Jan 02"))
}
