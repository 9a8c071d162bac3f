package models

import "time"

const (
	MinServerOffset = -12
	MaxServerOffset = 14
)

// AppSettings is the single install-wide configuration record.
type AppSettings struct {
	ServerOffset  int       `db:"server_offset" json:"server_offset"`
	CurrentSeason int       `db:"current_season" json:"current_season"`
	UpdatedBy     *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSettings mirrors a freshly installed instance.
func DefaultSettings() AppSettings {
	return AppSettings{ServerOffset: 0, CurrentSeason: 1}
}
