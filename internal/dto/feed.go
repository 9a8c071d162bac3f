package dto

import "time"

// FeedQuery parameterises the upcoming feed.
type FeedQuery struct {
	ViewerQuery
	Limit    int  `form:"limit" validate:"omitempty,min=1,max=50"`
	Priority *int `form:"priority" validate:"omitempty,min=1,max=3"`
	Days     int  `form:"days" validate:"omitempty,min=1,max=366"`
}

// FeedResponse is the sidebar feed: the next occurrences and the important ones.
type FeedResponse struct {
	Site        string           `json:"site"`
	Version     int64            `json:"version"`
	Timeline    string           `json:"timeline"`
	GeneratedAt time.Time        `json:"generated_at"`
	Upcoming    []OccurrenceView `json:"upcoming"`
	Important   []OccurrenceView `json:"important"`
}

// MonthQuery selects the month grid to render.
type MonthQuery struct {
	ViewerQuery
	Year  int `form:"year" validate:"omitempty,min=1970,max=9999"`
	Month int `form:"month" validate:"omitempty,min=1,max=12"`
}

// MonthView is a Sunday-first month grid.
type MonthView struct {
	Site          string    `json:"site"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timeline      string    `json:"timeline"`
	TimeZone      string    `json:"tz"`
	LeadingBlanks int       `json:"leading_blanks"`
	Days          []DayView `json:"days"`
	// Cached is set when the grid came from the month cache.
	Cached bool `json:"-"`
}

// DayView is one grid cell.
type DayView struct {
	Date   string     `json:"date"`
	Events []CellView `json:"events"`
}

// CellView is an occurrence inside a grid cell.
type CellView struct {
	ID                  string `json:"id"`
	AnchorID            string `json:"anchor_id"`
	Title               string `json:"title"`
	Time                string `json:"time"`
	IsRecurringInstance bool   `json:"is_recurring_instance"`
	Color               string `json:"color"`
	LabelColor          string `json:"label_color"`
	Icon                string `json:"icon,omitempty"`
	IconColor           string `json:"icon_color"`
}

// ClockResponse is the live clock readout.
type ClockResponse struct {
	Time         string `json:"time"`
	Timeline     string `json:"timeline"`
	ServerOffset int    `json:"server_offset"`
	Season       int    `json:"season"`
	Fallback     bool   `json:"fallback"`
}

// ExportQuery selects the month and format of an agenda export.
type ExportQuery struct {
	MonthQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// FeedLink is a signed iCalendar subscription URL.
type FeedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
