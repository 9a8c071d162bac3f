package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04"
	wallClockLayout = dateLayout + " " + clockLayout
)

// Viewer is the display context of a request: the timeline to render and the viewer's zone.
type Viewer struct {
	Timeline models.Timeline
	Location *time.Location
}

// ResolveViewer turns query parameters into a Viewer. An empty zone falls back to defaultTZ,
// then UTC. The timeline defaults to local.
func ResolveViewer(q dto.ViewerQuery, defaultTZ string) (Viewer, error) {
	v := Viewer{Timeline: models.TimelineLocal, Location: time.UTC}
	if q.Timeline != "" {
		tl := models.Timeline(q.Timeline)
		if !tl.Valid() {
			return v, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeline %q", q.Timeline))
		}
		v.Timeline = tl
	}

	name := q.TZ
	if name == "" {
		name = defaultTZ
	}
	if name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return v, appErrors.Invalid(err, fmt.Sprintf("unknown time zone %q", name))
		}
		v.Location = loc
	}
	return v, nil
}

// zoneFor returns the location wall clocks of timeline are entered in.
func zoneFor(timeline models.Timeline, viewer *time.Location, serverOffset int) *time.Location {
	if timeline == models.TimelineServer {
		return calendar.ServerZone(serverOffset)
	}
	if viewer == nil {
		return time.UTC
	}
	return viewer
}

// parseWallClock reads date ("2006-01-02") and clock ("15:04") as a wall clock in loc.
func parseWallClock(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(wallClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, appErrors.Invalid(err, "invalid date or time")
	}
	return t, nil
}

// parseDate reads a calendar date stored as UTC midnight.
func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, appErrors.Invalid(err, "invalid date")
	}
	return t, nil
}

// weekStart returns Sunday 00:00 of the week containing now in loc.
func weekStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
