package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// Frequency names a supported repetition rule.
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// CalendarEvent is one VEVENT. Recurring events are written once with an RRULE.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Category    string
	Start       time.Time
	End         time.Time
	Created     time.Time
	Modified    time.Time
	Frequency   Frequency
	// Until is the last calendar day of the series, inclusive. Only its date is used.
	Until *time.Time
}

// ICSExporter renders iCalendar feeds.
type ICSExporter struct {
	ProductID string
}

// NewICSExporter builds an exporter identifying itself with productID.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//groupcal//calendar feed//EN"
	}
	return &ICSExporter{ProductID: productID}
}

// Render serialises events into a VCALENDAR named name.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("event %q has no uid", ev.Summary)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(ev.Modified)
		vevent.SetCreatedTime(ev.Created)
		vevent.SetModifiedAt(ev.Modified)
		vevent.SetStartAt(ev.Start)
		vevent.SetEndAt(ev.End)
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Category != "" {
			vevent.SetProperty(ics.ComponentPropertyCategories, ev.Category)
		}
		if ev.Frequency != FrequencyNone {
			rule, err := RRule(ev.Frequency, ev.Start, ev.Until)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", ev.UID, err)
			}
			vevent.AddProperty(ics.ComponentPropertyRrule, rule)
		}
	}

	return []byte(cal.Serialize()), nil
}

// RRule returns the RRULE value (without the "RRULE:" prefix) for a series starting at start.
// Monthly series on days a month lacks skip that month, matching RFC 5545.
func RRule(freq Frequency, start time.Time, until *time.Time) (string, error) {
	opt := rrule.ROption{Dtstart: start.UTC()}
	switch freq {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("unsupported frequency %q", freq)
	}
	if until != nil {
		u := until.UTC()
		opt.Until = time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 0, time.UTC)
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return strings.TrimPrefix(opt.RRuleString(), "RRULE:"), nil
}
