package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/models"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func recurring(id string, start time.Time, r Recurrence) models.Event {
	return models.Event{ID: id, Title: id, Start: start, Duration: 60, TimeZone: TimelineLocal, Recurrence: r, Site: "alpha"}
}

func starts(events []models.Event) []time.Time {
	out := make([]time.Time, 0, len(events))
	for _, e := range events {
		out = append(out, e.Start)
	}
	return out
}

func TestExpandLookaheadDailyCoversWholeWindow(t *testing.T) {
	e := recurring("daily", utc(2024, 1, 1, 9, 0), RecurrenceDaily)
	now := utc(2024, 1, 15, 0, 0)

	occ, err := ExpandLookahead(e, Window{Now: now, LookaheadDays: 30})
	require.NoError(t, err)
	require.Len(t, occ, 31)

	assert.Equal(t, utc(2024, 1, 15, 9, 0), occ[0].Start)
	assert.Equal(t, utc(2024, 2, 14, 9, 0), occ[30].Start)
	for i, o := range occ {
		assert.True(t, o.IsRecurringInstance)
		assert.Equal(t, OccurrenceID("daily", o.Start), o.ID)
		assert.Equal(t, 60, o.Duration)
		if i > 0 {
			assert.Equal(t, 24*time.Hour, o.Start.Sub(occ[i-1].Start))
		}
	}
	assert.False(t, e.IsRecurringInstance)
}

func TestExpandLookaheadSkipsTodayWhenAlreadyPast(t *testing.T) {
	e := recurring("daily", utc(2024, 1, 1, 9, 0), RecurrenceDaily)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 15, 12, 0), LookaheadDays: 30})
	require.NoError(t, err)
	require.Len(t, occ, 30)
	assert.Equal(t, utc(2024, 1, 16, 9, 0), occ[0].Start)
	assert.Equal(t, utc(2024, 2, 14, 9, 0), occ[len(occ)-1].Start)
}

func TestExpandLookaheadWeeklyStaysOnAnchorWeekday(t *testing.T) {
	// 2024-01-03 is a Wednesday, 2024-01-15 a Monday.
	e := recurring("weekly", utc(2024, 1, 3, 18, 0), RecurrenceWeekly)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 15, 0, 0), LookaheadDays: 30})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		utc(2024, 1, 17, 18, 0),
		utc(2024, 1, 24, 18, 0),
		utc(2024, 1, 31, 18, 0),
		utc(2024, 2, 7, 18, 0),
		utc(2024, 2, 14, 18, 0),
	}, starts(occ))
	for _, o := range occ {
		assert.Equal(t, time.Wednesday, o.Start.Weekday())
	}
}

func TestExpandLookaheadUsesViewerCalendar(t *testing.T) {
	tokyo := time.FixedZone("viewer", 9*3600)
	// Tuesday 08:00 for the viewer, Monday 23:00 UTC.
	e := recurring("weekly", utc(2024, 1, 1, 23, 0), RecurrenceWeekly)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 10, 0, 0), LookaheadDays: 14, Location: tokyo})
	require.NoError(t, err)
	require.NotEmpty(t, occ)
	for _, o := range occ {
		assert.Equal(t, time.Tuesday, o.Start.In(tokyo).Weekday())
		assert.Equal(t, 8, o.Start.In(tokyo).Hour())
	}
}

func TestExpandLookaheadMonthlySkipsShortMonths(t *testing.T) {
	e := recurring("monthly", utc(2024, 1, 31, 12, 0), RecurrenceMonthly)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 15, 0, 0), LookaheadDays: 120})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{utc(2024, 1, 31, 12, 0), utc(2024, 3, 31, 12, 0)}, starts(occ))
}

func TestExpandLookaheadMonthlyWithoutMatchInWindow(t *testing.T) {
	e := recurring("monthly", utc(2024, 1, 31, 12, 0), RecurrenceMonthly)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 4, 1, 0, 0), LookaheadDays: 20})
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpandLookaheadRepeatsUntilIsInclusive(t *testing.T) {
	e := recurring("daily", utc(2024, 1, 1, 9, 0), RecurrenceDaily)
	until := utc(2024, 1, 20, 0, 0)
	e.RepeatsUntil = &until

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 15, 0, 0), LookaheadDays: 30})
	require.NoError(t, err)
	require.Len(t, occ, 6)
	assert.Equal(t, utc(2024, 1, 20, 9, 0), occ[5].Start)
}

func TestExpandLookaheadFutureAnchor(t *testing.T) {
	e := recurring("daily", utc(2024, 1, 20, 10, 0), RecurrenceDaily)

	occ, err := ExpandLookahead(e, Window{Now: utc(2024, 1, 15, 0, 0), LookaheadDays: 30})
	require.NoError(t, err)
	require.Len(t, occ, 26)
	assert.Equal(t, utc(2024, 1, 20, 10, 0), occ[0].Start)
}

func TestExpandLookaheadOneOff(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	past := recurring("past", utc(2024, 1, 14, 9, 0), RecurrenceNone)
	future := recurring("future", utc(2024, 6, 1, 9, 0), RecurrenceNone)
	exact := recurring("exact", now, "")

	occ, err := ExpandLookahead(past, Window{Now: now})
	require.NoError(t, err)
	assert.Empty(t, occ)

	occ, err = ExpandLookahead(future, Window{Now: now})
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, future, occ[0])

	occ, err = ExpandLookahead(exact, Window{Now: now})
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpandRejectsInvalidEvents(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	tests := []struct {
		name  string
		event models.Event
	}{
		{name: "zero duration", event: models.Event{ID: "a", Start: now, Duration: 0, Recurrence: RecurrenceDaily}},
		{name: "negative duration", event: models.Event{ID: "b", Start: now, Duration: -5}},
		{name: "unknown recurrence", event: models.Event{ID: "c", Start: now, Duration: 5, Recurrence: "yearly"}},
		{name: "missing start", event: models.Event{ID: "d", Duration: 5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExpandLookahead(tc.event, Window{Now: now})
			require.ErrorIs(t, err, ErrInvalidEvent)

			_, err = ExpandMonth(tc.event, 2024, time.January, time.UTC)
			require.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestExpandMonthMonthlyOnDay31(t *testing.T) {
	e := recurring("monthly", utc(2024, 1, 31, 12, 0), RecurrenceMonthly)

	april, err := ExpandMonth(e, 2024, time.April, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, april)

	march, err := ExpandMonth(e, 2024, time.March, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{utc(2024, 3, 31, 12, 0)}, starts(march))
}

func TestExpandMonthWeekly(t *testing.T) {
	e := recurring("weekly", utc(2024, 1, 3, 18, 0), RecurrenceWeekly)

	occ, err := ExpandMonth(e, 2024, time.February, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		utc(2024, 2, 7, 18, 0),
		utc(2024, 2, 14, 18, 0),
		utc(2024, 2, 21, 18, 0),
		utc(2024, 2, 28, 18, 0),
	}, starts(occ))
}

func TestExpandMonthStartsOnAnchorDateAndDropsSeconds(t *testing.T) {
	e := recurring("daily", time.Date(2024, 2, 10, 15, 45, 30, 0, time.UTC), RecurrenceDaily)

	occ, err := ExpandMonth(e, 2024, time.February, time.UTC)
	require.NoError(t, err)
	require.Len(t, occ, 20)
	assert.Equal(t, utc(2024, 2, 10, 15, 45), occ[0].Start)
	assert.Equal(t, utc(2024, 2, 29, 15, 45), occ[19].Start)
	assert.Equal(t, OccurrenceID("daily", occ[0].Start), occ[0].ID)
}

func TestExpandMonthBounds(t *testing.T) {
	e := recurring("daily", utc(2024, 1, 1, 9, 0), RecurrenceDaily)

	unbounded, err := ExpandMonth(e, 2025, time.January, time.UTC)
	require.NoError(t, err)
	assert.Len(t, unbounded, 31)

	until := utc(2024, 2, 5, 0, 0)
	e.RepeatsUntil = &until
	bounded, err := ExpandMonth(e, 2024, time.February, time.UTC)
	require.NoError(t, err)
	assert.Len(t, bounded, 5)

	before, err := ExpandMonth(e, 2023, time.December, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, before)
}

func TestExpandMonthPassesOneOffThrough(t *testing.T) {
	e := recurring("once", utc(2023, 5, 1, 9, 0), RecurrenceNone)

	occ, err := ExpandMonth(e, 2024, time.February, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []models.Event{e}, occ)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
	assert.Equal(t, 30, DaysIn(2024, time.April))
}
