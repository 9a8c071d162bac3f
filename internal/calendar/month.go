package calendar

import (
	"time"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// Day is one cell of a month grid.
type Day struct {
	Date   time.Time
	Events []models.Event
}

// MonthGrid is a month laid out for a Sunday-first calendar.
type MonthGrid struct {
	Year  int
	Month time.Month
	// LeadingBlanks is the number of empty cells before the first day.
	LeadingBlanks int
	Days          []Day
}

// MonthOccurrences returns the stored non-recurring events together with every occurrence
// of the recurring ones that falls on a day of year/month in loc.
func MonthOccurrences(events []models.Event, year int, month time.Month, loc *time.Location) ([]models.Event, error) {
	var all []models.Event
	for _, e := range events {
		if e.IsRecurringInstance {
			continue
		}
		occ, err := ExpandMonth(e, year, month, loc)
		if err != nil {
			return nil, err
		}
		all = append(all, occ...)
	}
	return all, nil
}

// EventsForDay keeps the events that display on day for the given timeline, ordered by start.
func EventsForDay(all []models.Event, day time.Time, timeline Timeline, offset *int, r *Reconciler) []models.Event {
	var out []models.Event
	for _, e := range all {
		if r.IsSameDisplayDay(e.Start, day, timeline, offset) {
			out = append(out, e)
		}
	}
	SortByStart(out)
	return out
}

// BuildMonth buckets the month's occurrences into display days.
func BuildMonth(all []models.Event, year int, month time.Month, timeline Timeline, offset *int, r *Reconciler) MonthGrid {
	loc := r.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	grid := MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]Day, 0, DaysIn(year, month)),
	}

	for day := 1; day <= DaysIn(year, month); day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, loc)
		grid.Days = append(grid.Days, Day{Date: date, Events: EventsForDay(all, date, timeline, offset, r)})
	}
	return grid
}
