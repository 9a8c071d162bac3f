package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func intPtr(v int) *int { return &v }

func TestServerTimelineBucketsIntoNextDay(t *testing.T) {
	r := NewReconciler(time.UTC, nil)
	instant := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	june1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	june2 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, r.IsSameDisplayDay(instant, june2, TimelineServer, intPtr(2)))
	assert.False(t, r.IsSameDisplayDay(instant, june1, TimelineServer, intPtr(2)))
	assert.True(t, r.IsSameDisplayDay(instant, june1, TimelineLocal, intPtr(2)))
	assert.False(t, r.IsSameDisplayDay(instant, june2, TimelineLocal, intPtr(2)))
}

func TestFormatGranularities(t *testing.T) {
	viewer := time.FixedZone("viewer", -5*3600)
	r := NewReconciler(viewer, nil)
	instant := time.Date(2024, 6, 1, 23, 30, 15, 0, time.UTC)

	tests := []struct {
		name     string
		timeline Timeline
		offset   *int
		g        Granularity
		want     string
	}{
		{name: "server seconds", timeline: TimelineServer, offset: intPtr(2), g: GranularitySeconds, want: "01:30:15"},
		{name: "server minutes", timeline: TimelineServer, offset: intPtr(2), g: GranularityMinutes, want: "01:30"},
		{name: "negative offset", timeline: TimelineServer, offset: intPtr(-12), g: GranularityMinutes, want: "11:30"},
		{name: "local minutes", timeline: TimelineLocal, g: GranularityMinutes, want: "18:30"},
		{name: "local seconds", timeline: TimelineLocal, g: GranularitySeconds, want: "18:30:15"},
		{name: "missing offset falls back", timeline: TimelineServer, g: GranularitySeconds, want: "6:30 PM"},
		{name: "offset out of range falls back", timeline: TimelineServer, offset: intPtr(15), g: GranularityMinutes, want: "6:30 PM"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Format(instant, tc.timeline, tc.offset, tc.g))
		})
	}
}

func TestFallbackIsLoggedAndCounted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var fallbacks []Timeline
	r := NewReconciler(time.UTC, zap.New(core), WithFallbackHook(func(tl Timeline) {
		fallbacks = append(fallbacks, tl)
	}))

	instant := time.Date(2024, 6, 1, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "9:05 AM", r.Format(instant, TimelineServer, nil, GranularityMinutes))
	assert.Equal(t, "9:05 AM", r.Format(instant, Timeline("galactic"), intPtr(1), GranularityMinutes))
	assert.Equal(t, "09:05", r.Format(instant, TimelineLocal, nil, GranularityMinutes))

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "reconciliation", entry.Message)
	}
	assert.Equal(t, []Timeline{TimelineServer, Timeline("galactic")}, fallbacks)
}

func TestCellTime(t *testing.T) {
	r := NewReconciler(time.UTC, nil)
	instant := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)

	label, ok := r.CellTime(instant, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), TimelineServer, intPtr(2))
	require.True(t, ok)
	assert.Equal(t, "01:30", label)

	_, ok = r.CellTime(instant, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), TimelineLocal, intPtr(2))
	assert.False(t, ok)
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{name: "exactly now", instant: now, want: "Passed"},
		{name: "past", instant: now.Add(-time.Hour), want: "Passed"},
		{name: "ninety seconds", instant: now.Add(90 * time.Second), want: "1m 30s"},
		{name: "twenty five hours", instant: now.Add(25 * time.Hour), want: "1d 1h"},
		{name: "days and hours", instant: now.Add(52 * time.Hour), want: "2d 4h"},
		{name: "hours and minutes", instant: now.Add(3*time.Hour + 12*time.Minute + 40*time.Second), want: "3h 12m"},
		{name: "sub second", instant: now.Add(500 * time.Millisecond), want: "0m 0s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TimeUntil(tc.instant, now))
		})
	}
}
