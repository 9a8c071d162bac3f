package dto

import "github.com/noah-isme/groupcal-api/internal/models"

// TemplateSlotRequest plans one weekday. Leave Title empty for a free day.
type TemplateSlotRequest struct {
	Title         string          `json:"title" validate:"omitempty,max=120"`
	Time          string          `json:"time" validate:"required_with=Title,omitempty,datetime=15:04"`
	DurationHours float64         `json:"duration_hours" validate:"required_with=Title,omitempty,gt=0,lte=24"`
	CategoryID    *string         `json:"category_id" validate:"omitempty,max=64"`
	TimeZone      models.Timeline `json:"time_zone" validate:"omitempty,timeline"`
}

// TemplateRequest creates or replaces a weekly template. Slots run Sunday to Saturday.
type TemplateRequest struct {
	Name  string                `json:"name" validate:"required,max=80"`
	Slots []TemplateSlotRequest `json:"slots" validate:"len=7,dive"`
}

// ApplyTemplateRequest instantiates a template in the viewer's current week.
type ApplyTemplateRequest struct {
	ViewerQuery
	// Days restricts the weekdays to apply, e.g. ["monday","friday"]. Empty applies all.
	Days []string `json:"days" validate:"omitempty,dive,weekday"`
}

// FromWeekRequest builds a template from the events of the viewer's current week.
type FromWeekRequest struct {
	ViewerQuery
	Name string `json:"name" validate:"required,max=80"`
}

// ApplyTemplateResponse lists the events created by an apply.
type ApplyTemplateResponse struct {
	Created []models.Event `json:"created"`
}
