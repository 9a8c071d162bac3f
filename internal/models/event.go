package models

import "time"

// Timeline names the clock an event was authored against.
type Timeline string

const (
	TimelineLocal  Timeline = "local"
	TimelineServer Timeline = "server"
)

// Valid reports whether t is a known timeline.
func (t Timeline) Valid() bool {
	return t == TimelineLocal || t == TimelineServer
}

// Recurrence is the repeat rule of an event.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Valid reports whether r is a known recurrence rule.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Recurring reports whether r produces more than one occurrence.
func (r Recurrence) Recurring() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly || r == RecurrenceMonthly
}

// Event is a scheduled entry of a site. Start is always stored in UTC.
type Event struct {
	ID                  string     `db:"id" json:"id"`
	Site                string     `db:"site" json:"site"`
	Title               string     `db:"title" json:"title"`
	Start               time.Time  `db:"start_at" json:"start"`
	Duration            int        `db:"duration_minutes" json:"duration"`
	TimeZone            Timeline   `db:"time_zone" json:"time_zone"`
	Recurrence          Recurrence `db:"recurrence" json:"recurrence"`
	RepeatsUntil        *time.Time `db:"repeats_until" json:"repeats_until,omitempty"`
	CategoryID          *string    `db:"category_id" json:"category_id,omitempty"`
	Icon                *string    `db:"icon" json:"icon,omitempty"`
	IconColor           *string    `db:"icon_color" json:"icon_color,omitempty"`
	CreatedBy           string     `db:"created_by" json:"created_by"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
	IsRecurringInstance bool       `db:"-" json:"is_recurring_instance"`
}

// End returns the instant the event finishes.
func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.Duration) * time.Minute)
}

// EventFilter narrows down stored events of a site.
type EventFilter struct {
	Site        string
	From        *time.Time
	To          *time.Time
	Recurrence  []Recurrence
	CategoryIDs []string
	Search      string
	Page        int
	PageSize    int
}
