package models

import "time"

// Collection names a site-scoped data set that pushes change notifications.
type Collection string

const (
	CollectionEvents     Collection = "events"
	CollectionCategories Collection = "categories"
	CollectionTemplates  Collection = "templates"
	CollectionSettings   Collection = "settings"
)

// GlobalScope is the change-feed scope for install-wide records such as AppSettings.
const GlobalScope = "_global"

// ChangeNotice announces that a collection of a site changed.
type ChangeNotice struct {
	Site       string     `json:"site"`
	Collection Collection `json:"collection"`
	Version    int64      `json:"version"`
	ChangedAt  time.Time  `json:"changed_at"`
}

// SiteSnapshot is the full current state the calendar core needs for a site.
type SiteSnapshot struct {
	Site            string      `json:"site"`
	Version         int64       `json:"version"`
	SettingsVersion int64       `json:"settings_version"`
	Events          []Event     `json:"events"`
	Categories      []Category  `json:"categories"`
	Settings        AppSettings `json:"settings"`
}
