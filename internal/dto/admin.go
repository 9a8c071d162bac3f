package dto

import "github.com/noah-isme/groupcal-api/internal/models"

// CreateInviteRequest mints an invite code for a site.
type CreateInviteRequest struct {
	Role    models.UserRole `json:"role" validate:"required,oneof=admin leader user"`
	MaxUses *int            `json:"max_uses" validate:"omitempty,min=1,max=1000"`
}

// RedeemInviteRequest joins a site. Code may be empty only for the very first user.
type RedeemInviteRequest struct {
	Code            string `json:"code" validate:"omitempty,alphanum,max=16"`
	DisplayName     string `json:"display_name" validate:"required,max=60"`
	PlanetNumber    string `json:"planet_number" validate:"omitempty,max=3"`
	Alliance        string `json:"alliance" validate:"omitempty,max=3"`
	DiscordUsername string `json:"discord_username" validate:"omitempty,max=64"`
}

// InviteValidation describes what redeeming a code grants.
type InviteValidation struct {
	Code          string          `json:"code"`
	Site          string          `json:"site"`
	Role          models.UserRole `json:"role"`
	UsesRemaining *int            `json:"uses_remaining,omitempty"`
}

// UpdateRoleRequest changes the role of a member.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=admin leader user"`
}

// UpdateProfileRequest is the self-service profile form.
type UpdateProfileRequest struct {
	DisplayName     string `json:"display_name" validate:"required,max=60"`
	PlanetNumber    string `json:"planet_number" validate:"omitempty,max=3"`
	Alliance        string `json:"alliance" validate:"omitempty,max=3"`
	CustomColor     string `json:"custom_color" validate:"omitempty,hexcolor"`
	DiscordUsername string `json:"discord_username" validate:"omitempty,max=64"`
}

// UserListQuery captures directory filters.
type UserListQuery struct {
	Search    string `form:"q"`
	SortBy    string `form:"sort" validate:"omitempty,oneof=planetNumber alliance displayName"`
	SortOrder string `form:"order" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// UpdateSettingsRequest changes the install-wide settings. Omitted fields are kept.
type UpdateSettingsRequest struct {
	ServerOffset  *int `json:"server_offset" validate:"omitempty,min=-12,max=14"`
	CurrentSeason *int `json:"current_season" validate:"omitempty,min=1"`
}

// ActivityQuery pages through the activity log.
type ActivityQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
