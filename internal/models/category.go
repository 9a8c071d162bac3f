package models

import (
	"database/sql/driver"
	"sort"
	"time"
)

// DefaultPriority applies to categories without an explicit priority and to uncategorised events.
const DefaultPriority = 2

// Action is a quick-action affordance attached to a category.
type Action struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Actions is an ordered list persisted as JSONB.
type Actions []Action

// Value implements driver.Valuer.
func (a Actions) Value() (driver.Value, error) {
	return jsonListValue(a, a == nil)
}

// Scan implements sql.Scanner.
func (a *Actions) Scan(src interface{}) error {
	return scanJSONList(src, a)
}

// Category classifies events of a site.
type Category struct {
	ID         string    `db:"id" json:"id"`
	Site       string    `db:"site" json:"site"`
	Name       string    `db:"name" json:"name"`
	Color      string    `db:"color" json:"color"`
	LabelColor *string   `db:"label_color" json:"label_color,omitempty"`
	Priority   *int      `db:"priority" json:"priority,omitempty"`
	Icon       *string   `db:"icon" json:"icon,omitempty"`
	IconColor  *string   `db:"icon_color" json:"icon_color,omitempty"`
	Actions    Actions   `db:"actions" json:"actions"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// EffectivePriority returns the priority, defaulting when unset.
func (c Category) EffectivePriority() int {
	if c.Priority == nil {
		return DefaultPriority
	}
	return *c.Priority
}

// SortCategoriesByPriority orders categories highest priority first, then by name.
func SortCategoriesByPriority(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		pi, pj := categories[i].EffectivePriority(), categories[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		return categories[i].Name < categories[j].Name
	})
}
