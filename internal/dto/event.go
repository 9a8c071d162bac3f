package dto

import (
	"time"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

// EventRequest is the payload for creating or replacing an event. Date and Time are the
// wall clock of the chosen timeline.
type EventRequest struct {
	Title         string            `json:"title" validate:"required,max=120"`
	Date          string            `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string            `json:"time" validate:"required,datetime=15:04"`
	TimeZone      models.Timeline   `json:"time_zone" validate:"required,timeline"`
	DurationHours float64           `json:"duration_hours" validate:"required,gt=0,lte=168"`
	Recurrence    models.Recurrence `json:"recurrence" validate:"omitempty,recurrence"`
	RepeatsUntil  *string           `json:"repeats_until" validate:"omitempty,datetime=2006-01-02"`
	CategoryID    *string           `json:"category_id" validate:"omitempty,max=64"`
	Icon          *string           `json:"icon" validate:"omitempty,icon"`
	IconColor     *string           `json:"icon_color" validate:"omitempty,hexcolor"`
}

// EventListQuery captures list filters for stored events.
type EventListQuery struct {
	From       string   `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string   `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Recurrence []string `form:"recurrence" validate:"omitempty,dive,recurrence"`
	Category   []string `form:"category"`
	Search     string   `form:"q"`
	Page       int      `form:"page"`
	PageSize   int      `form:"page_size"`
}

// ViewerQuery selects the display timeline and the viewer's IANA time zone.
type ViewerQuery struct {
	Timeline string `form:"timeline" validate:"omitempty,timeline"`
	TZ       string `form:"tz" validate:"omitempty,timezone"`
}

// OccurrenceView is one event occurrence ready for rendering.
type OccurrenceView struct {
	ID                  string            `json:"id"`
	AnchorID            string            `json:"anchor_id"`
	Title               string            `json:"title"`
	Start               time.Time         `json:"start"`
	End                 time.Time         `json:"end"`
	Duration            int               `json:"duration"`
	TimeZone            models.Timeline   `json:"time_zone"`
	Recurrence          models.Recurrence `json:"recurrence"`
	RepeatsUntil        *time.Time        `json:"repeats_until,omitempty"`
	CategoryID          *string           `json:"category_id,omitempty"`
	IsRecurringInstance bool              `json:"is_recurring_instance"`
	DisplayStart        string            `json:"display_start"`
	DisplayEnd          string            `json:"display_end"`
	Countdown           string            `json:"countdown"`
	Style               calendar.Style    `json:"style"`
}
