package models

import (
	"encoding/json"
	"time"
)

// ActivityType names an audited mutation.
type ActivityType string

const (
	ActivityEventCreate      ActivityType = "EVENT_CREATE"
	ActivityEventUpdate      ActivityType = "EVENT_UPDATE"
	ActivityEventDelete      ActivityType = "EVENT_DELETE"
	ActivityCategoryCreate   ActivityType = "CATEGORY_CREATE"
	ActivityCategoryUpdate   ActivityType = "CATEGORY_UPDATE"
	ActivityCategoryDelete   ActivityType = "CATEGORY_DELETE"
	ActivityTemplateSave     ActivityType = "TEMPLATE_SAVE"
	ActivityTemplateDelete   ActivityType = "TEMPLATE_DELETE"
	ActivityTemplateApply    ActivityType = "TEMPLATE_APPLY"
	ActivityInviteCreate     ActivityType = "INVITE_CREATE"
	ActivityUserSignup       ActivityType = "USER_SIGNUP"
	ActivityUserRoleUpdate   ActivityType = "USER_ROLE_UPDATE"
	ActivityUserRemove       ActivityType = "USER_REMOVE"
	ActivityUserProfile      ActivityType = "USER_PROFILE_UPDATE"
	ActivityConfigUpdate     ActivityType = "CONFIG_UPDATE"
	ActivityMaintenanceSweep ActivityType = "MAINTENANCE_SWEEP"
)

// ActivityEntry is one row of the site activity log.
type ActivityEntry struct {
	ID         string          `db:"id" json:"id"`
	Timestamp  time.Time       `db:"occurred_at" json:"timestamp"`
	UserID     string          `db:"user_id" json:"user_id"`
	UserName   string          `db:"user_name" json:"user_name"`
	Site       string          `db:"site" json:"site"`
	Role       UserRole        `db:"role" json:"role"`
	ActionType ActivityType    `db:"action_type" json:"action_type"`
	Details    json.RawMessage `db:"details" json:"details"`
}

// ActivityFilter narrows down activity log listings.
type ActivityFilter struct {
	Site     string
	Page     int
	PageSize int
}
