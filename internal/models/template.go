package models

import (
	"database/sql/driver"
	"time"
)

// DaysPerWeek is the number of slots of a weekly template, Sunday first.
const DaysPerWeek = 7

// TemplateSlot describes the event planned for one weekday. An empty title marks a free day.
type TemplateSlot struct {
	Title         string   `json:"title"`
	Time          string   `json:"time"`
	DurationHours float64  `json:"duration_hours"`
	CategoryID    *string  `json:"category_id,omitempty"`
	TimeZone      Timeline `json:"time_zone"`
}

// Empty reports whether the slot schedules nothing.
func (s TemplateSlot) Empty() bool {
	return s.Title == ""
}

// TemplateSlots holds exactly DaysPerWeek entries persisted as JSONB.
type TemplateSlots []TemplateSlot

// Value implements driver.Valuer.
func (s TemplateSlots) Value() (driver.Value, error) {
	return jsonListValue(s, s == nil)
}

// Scan implements sql.Scanner.
func (s *TemplateSlots) Scan(src interface{}) error {
	return scanJSONList(src, s)
}

// Template is a reusable weekly plan for a site.
type Template struct {
	ID        string        `db:"id" json:"id"`
	Site      string        `db:"site" json:"site"`
	Name      string        `db:"name" json:"name"`
	Slots     TemplateSlots `db:"slots" json:"slots"`
	CreatedBy string        `db:"created_by" json:"created_by"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
