package models

import "time"

// InviteStatus tracks whether a code can still be redeemed.
type InviteStatus string

const (
	InviteActive InviteStatus = "active"
	InviteUsed   InviteStatus = "used"
)

// InviteCode grants a role on a site to whoever redeems it.
type InviteCode struct {
	ID            string       `db:"id" json:"id"`
	Code          string       `db:"code" json:"code"`
	Site          string       `db:"site" json:"site"`
	Role          UserRole     `db:"role" json:"role"`
	MaxUses       *int         `db:"max_uses" json:"max_uses,omitempty"`
	UsesRemaining *int         `db:"uses_remaining" json:"uses_remaining,omitempty"`
	Status        InviteStatus `db:"status" json:"status"`
	CreatedBy     string       `db:"created_by" json:"created_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	LastUsedBy    *string      `db:"last_used_by" json:"last_used_by,omitempty"`
	LastUsedAt    *time.Time   `db:"last_used_at" json:"last_used_at,omitempty"`
}

// Redeemable reports whether the code is active and has uses left. Nil remaining uses means unlimited.
func (c InviteCode) Redeemable() bool {
	if c.Status != InviteActive {
		return false
	}
	return c.UsesRemaining == nil || *c.UsesRemaining > 0
}
