package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

const inviteColumns = "id, code, site, role, max_uses, uses_remaining, status, created_by, created_at, last_used_by, last_used_at"

// InviteRepository persists invite codes.
type InviteRepository struct {
	db *sqlx.DB
}

// NewInviteRepository constructs an invite repository.
func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts an invite code.
func (r *InviteRepository) Create(ctx context.Context, invite *models.InviteCode) error {
	if invite.ID == "" {
		invite.ID = calendar.NewID()
	}
	invite.Code = strings.ToUpper(invite.Code)
	invite.CreatedAt = time.Now().UTC()
	if invite.Status == "" {
		invite.Status = models.InviteActive
	}
	query := `INSERT INTO invite_codes (id, code, site, role, max_uses, uses_remaining, status, created_by, created_at)
VALUES (:id, :code, :site, :role, :max_uses, :uses_remaining, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invite); err != nil {
		return fmt.Errorf("create invite code: %w", err)
	}
	return nil
}

// GetByCode looks up an invite code case-insensitively.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*models.InviteCode, error) {
	query := "SELECT " + inviteColumns + " FROM invite_codes WHERE code = $1"
	var invite models.InviteCode
	if err := r.db.GetContext(ctx, &invite, query, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListBySite returns the codes of a site, newest first.
func (r *InviteRepository) ListBySite(ctx context.Context, site string) ([]models.InviteCode, error) {
	query := "SELECT " + inviteColumns + " FROM invite_codes WHERE site = $1 ORDER BY created_at DESC"
	var invites []models.InviteCode
	if err := r.db.SelectContext(ctx, &invites, query, site); err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	return invites, nil
}

const consumeInviteQuery = `UPDATE invite_codes SET
uses_remaining = CASE WHEN uses_remaining IS NULL THEN NULL ELSE GREATEST(uses_remaining - 1, 0) END,
status = CASE WHEN uses_remaining IS NOT NULL AND uses_remaining <= 1 THEN 'used' ELSE status END,
last_used_by = $2, last_used_at = $3
WHERE id = $1 AND status = 'active' AND (uses_remaining IS NULL OR uses_remaining > 0)
RETURNING ` + inviteColumns

// RedeemInvite takes one use of an active code and inserts user with the role and site the code
// grants, in a single transaction. sql.ErrNoRows means the code was exhausted or deactivated
// concurrently; any failure leaves the code untouched.
func (r *InviteRepository) RedeemInvite(ctx context.Context, id string, user *models.User, at time.Time) (_ *models.InviteCode, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redeem: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var invite models.InviteCode
	if err = tx.GetContext(ctx, &invite, consumeInviteQuery, id, user.ID, at.UTC()); err != nil {
		return nil, err
	}
	user.Role = invite.Role
	user.Site = invite.Site
	if err = insertUser(ctx, tx, user); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redeem: %w", err)
	}
	return &invite, nil
}

// Bootstrap inserts user only while the directory is empty and reports whether it did.
// The users table is locked for the check so concurrent first sign-ups serialise.
func (r *InviteRepository) Bootstrap(ctx context.Context, user *models.User) (_ bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin bootstrap: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return false, fmt.Errorf("lock users: %w", err)
	}
	var total int
	if err = tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if total > 0 {
		return false, tx.Rollback()
	}
	if err = insertUser(ctx, tx, user); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit bootstrap: %w", err)
	}
	return true, nil
}

// MarkExhaustedUsed flips active codes without remaining uses to used and reports how many changed.
func (r *InviteRepository) MarkExhaustedUsed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE invite_codes SET status = 'used' WHERE status = 'active' AND uses_remaining IS NOT NULL AND uses_remaining <= 0`)
	if err != nil {
		return 0, fmt.Errorf("sweep invite codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep invite codes rows: %w", err)
	}
	return n, nil
}

// Delete removes an invite code of site. sql.ErrNoRows means no such code on that site.
func (r *InviteRepository) Delete(ctx context.Context, site, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM invite_codes WHERE site = $1 AND id = $2", site, id)
	if err != nil {
		return fmt.Errorf("delete invite code: %w", err)
	}
	return requireAffected(res)
}
