package calendar

import (
	"time"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// DefaultLookaheadDays is the rolling window of the upcoming feed.
const DefaultLookaheadDays = 30

// Window bounds a rolling lookahead expansion.
type Window struct {
	Now           time.Time
	LookaheadDays int
	Location      *time.Location
}

func (w Window) normalized() Window {
	if w.LookaheadDays <= 0 {
		w.LookaheadDays = DefaultLookaheadDays
	}
	if w.Location == nil {
		w.Location = time.UTC
	}
	return w
}

// Horizon is the last instant of the calendar day, in the window's location, that lies
// LookaheadDays after Now.
func (w Window) Horizon() time.Time {
	w = w.normalized()
	return endOfDay(w.Now.In(w.Location).AddDate(0, 0, w.LookaheadDays))
}

// ExpandLookahead materializes the occurrences of e that start after w.Now and no later
// than the window horizon or the event's repeats-until day, whichever comes first.
// A non-recurring event is returned as is when it starts after w.Now.
func ExpandLookahead(e models.Event, w Window) ([]models.Event, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	w = w.normalized()

	if !e.Recurrence.Recurring() {
		if e.Start.After(w.Now) {
			return []models.Event{e}, nil
		}
		return nil, nil
	}

	loc := w.Location
	anchor := e.Start.In(loc)
	bound := w.Horizon()
	if e.RepeatsUntil != nil {
		if until := untilEndOfDay(*e.RepeatsUntil, loc); until.Before(bound) {
			bound = until
		}
	}

	base := anchor
	if now := w.Now.In(loc); now.After(anchor) {
		base = now
	}
	cursor := atTimeOfDay(base, anchor)

	// The first match is searched day by day so weekly and monthly rules find their
	// weekday or day of month even when the cursor starts on a different one.
	found := false
	for i := 0; i <= w.LookaheadDays && !cursor.After(bound); i++ {
		if matches(e.Recurrence, anchor, cursor) && cursor.After(w.Now) {
			found = true
			break
		}
		cursor = addDays(cursor, anchor, 1)
	}
	if !found {
		return nil, nil
	}

	var out []models.Event
	for !cursor.After(bound) {
		out = append(out, occurrence(e, cursor))
		cursor = step(e.Recurrence, anchor, cursor)
	}
	return out, nil
}

// ExpandMonth materializes the occurrences of e on the days of year/month in loc.
// Each occurrence keeps the anchor's hour and minute. A non-recurring event is returned as is.
// Without a repeats-until day the rule is bounded by January 1 of the following year.
func ExpandMonth(e models.Event, year int, month time.Month, loc *time.Location) ([]models.Event, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if !e.Recurrence.Recurring() {
		return []models.Event{e}, nil
	}

	anchor := e.Start.In(loc)
	anchorDate := startOfDay(anchor)
	until := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	if e.RepeatsUntil != nil {
		until = untilDate(*e.RepeatsUntil, loc)
	}

	var out []models.Event
	for day := 1; day <= DaysIn(year, month); day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if d.After(until) {
			break
		}
		if d.Before(anchorDate) || !matches(e.Recurrence, anchor, d) {
			continue
		}
		at := time.Date(year, month, day, anchor.Hour(), anchor.Minute(), 0, 0, loc)
		out = append(out, occurrence(e, at))
	}
	return out, nil
}

// DaysIn returns the number of days of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func matches(r Recurrence, anchor, d time.Time) bool {
	switch r {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		return d.Weekday() == anchor.Weekday()
	case RecurrenceMonthly:
		return d.Day() == anchor.Day()
	}
	return false
}

// step advances cursor by one recurrence period. Monthly rules skip months that do not
// have the anchor's day of month.
func step(r Recurrence, anchor, cursor time.Time) time.Time {
	switch r {
	case RecurrenceWeekly:
		return addDays(cursor, anchor, 7)
	case RecurrenceMonthly:
		y, m, _ := cursor.Date()
		for k := 1; ; k++ {
			next := time.Date(y, m+time.Month(k), anchor.Day(), anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), cursor.Location())
			if next.Day() == anchor.Day() {
				return next
			}
		}
	default:
		return addDays(cursor, anchor, 1)
	}
}

// addDays moves cursor by n calendar days keeping the anchor's wall-clock time.
func addDays(cursor, anchor time.Time, n int) time.Time {
	y, m, d := cursor.Date()
	return time.Date(y, m, d+n, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), cursor.Location())
}

func atTimeOfDay(day, anchor time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), day.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// untilDate reads a repeats-until value as a calendar date in loc. The stored value is a
// date, so its UTC fields carry the day.
func untilDate(until time.Time, loc *time.Location) time.Time {
	y, m, d := until.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func untilEndOfDay(until time.Time, loc *time.Location) time.Time {
	return endOfDay(untilDate(until, loc))
}
