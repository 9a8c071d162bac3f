package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleLeader  UserRole = "leader"
	RoleUser    UserRole = "user"
	RoleRemoved UserRole = "removed"
)

// CanEdit reports whether the role may mutate events, categories and templates.
func (r UserRole) CanEdit() bool {
	return r == RoleAdmin || r == RoleLeader
}

// Valid reports whether r is an assignable role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleUser:
		return true
	}
	return false
}

// RemovedSite marks the site of a user whose access was revoked.
const RemovedSite = "removed"

// DefaultUserColor is assigned to new directory entries.
const DefaultUserColor = "#3b82f6"

// User is a directory entry. Credentials live with the identity service.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	Role            UserRole  `db:"role" json:"role"`
	Site            string    `db:"site" json:"site"`
	PlanetNumber    string    `db:"planet_number" json:"planet_number"`
	Alliance        string    `db:"alliance" json:"alliance"`
	CustomColor     string    `db:"custom_color" json:"custom_color"`
	DiscordUsername string    `db:"discord_username" json:"discord_username"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Site      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
