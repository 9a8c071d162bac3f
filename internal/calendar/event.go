package calendar

import (
	"errors"
	"fmt"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// Timeline and Recurrence are the stored event vocabulary.
type (
	Timeline   = models.Timeline
	Recurrence = models.Recurrence
)

const (
	TimelineLocal  = models.TimelineLocal
	TimelineServer = models.TimelineServer

	RecurrenceNone    = models.RecurrenceNone
	RecurrenceDaily   = models.RecurrenceDaily
	RecurrenceWeekly  = models.RecurrenceWeekly
	RecurrenceMonthly = models.RecurrenceMonthly
)

// ErrInvalidEvent is returned when an event violates the input contract of the expander.
var ErrInvalidEvent = errors.New("calendar: invalid event")

// Validate checks the fields the expander relies on. An empty recurrence is treated as none.
func Validate(e models.Event) error {
	if e.Start.IsZero() {
		return fmt.Errorf("%w: %s has no start", ErrInvalidEvent, e.ID)
	}
	if e.Duration <= 0 {
		return fmt.Errorf("%w: %s has non-positive duration %d", ErrInvalidEvent, e.ID, e.Duration)
	}
	if e.Recurrence != "" && !e.Recurrence.Valid() {
		return fmt.Errorf("%w: %s has unknown recurrence %q", ErrInvalidEvent, e.ID, e.Recurrence)
	}
	if e.RepeatsUntil != nil && e.RepeatsUntil.IsZero() {
		return fmt.Errorf("%w: %s has empty repeats-until", ErrInvalidEvent, e.ID)
	}
	return nil
}
