package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

const (
	inviteAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultInviteLength = 6
	inviteCreateRetries = 3
	pqUniqueViolation   = "23505"
)

type inviteRepository interface {
	Create(ctx context.Context, invite *models.InviteCode) error
	GetByCode(ctx context.Context, code string) (*models.InviteCode, error)
	ListBySite(ctx context.Context, site string) ([]models.InviteCode, error)
	Delete(ctx context.Context, site, id string) error
	// RedeemInvite consumes one use and inserts user atomically, copying role and site from the code.
	RedeemInvite(ctx context.Context, id string, user *models.User, at time.Time) (*models.InviteCode, error)
	// Bootstrap inserts user only into an empty directory and reports whether it did.
	Bootstrap(ctx context.Context, user *models.User) (bool, error)
}

type inviteDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// InviteConfig shapes invite codes and the bootstrap site.
type InviteConfig struct {
	CodeLength int
	// BootstrapSite is assigned to the first user, who joins without a code.
	BootstrapSite string
}

// InviteService mints invite codes and turns redemptions into directory entries.
type InviteService struct {
	repo      inviteRepository
	directory inviteDirectory
	validator *validator.Validate
	activity  activityRecorder
	logger    *zap.Logger
	cfg       InviteConfig
	now       func() time.Time
	generate  func(n int) (string, error)
}

// NewInviteService constructs an InviteService.
func NewInviteService(repo inviteRepository, directory inviteDirectory, validate *validator.Validate, logger *zap.Logger, cfg InviteConfig) *InviteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = defaultInviteLength
	}
	return &InviteService{
		repo:      repo,
		directory: directory,
		validator: ensureValidator(validate),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		generate:  randomCode,
	}
}

// SetActivity wires activity recording.
func (s *InviteService) SetActivity(activity activityRecorder) {
	s.activity = activity
}

// Create mints a code granting role on site. A nil MaxUses means unlimited.
func (s *InviteService) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CreateInviteRequest) (*models.InviteCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid invite payload")
	}

	var lastErr error
	for attempt := 0; attempt < inviteCreateRetries; attempt++ {
		code, err := s.generate(s.cfg.CodeLength)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate invite code")
		}
		invite := &models.InviteCode{
			ID:      calendar.NewID(),
			Code:    code,
			Site:    site,
			Role:    req.Role,
			MaxUses: req.MaxUses,
			Status:  models.InviteActive,
		}
		if req.MaxUses != nil {
			remaining := *req.MaxUses
			invite.UsesRemaining = &remaining
		}
		if actor != nil {
			invite.CreatedBy = actor.UserID
		}

		err = s.repo.Create(ctx, invite)
		if err == nil {
			if s.activity != nil {
				s.activity.Record(ctx, actor, models.ActivityInviteCreate, map[string]interface{}{
					"code": invite.Code, "role": invite.Role, "maxUses": invite.MaxUses,
				})
			}
			return invite, nil
		}
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
			return nil, appErrors.Internal(err, "failed to create invite code")
		}
		lastErr = err
	}
	return nil, appErrors.Internal(lastErr, "failed to find a free invite code")
}

// List returns the codes of a site.
func (s *InviteService) List(ctx context.Context, site string) ([]models.InviteCode, error) {
	invites, err := s.repo.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list invite codes")
	}
	return invites, nil
}

// Delete revokes a code of site.
func (s *InviteService) Delete(ctx context.Context, site, id string) error {
	if err := s.repo.Delete(ctx, site, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "invite code not found")
		}
		return appErrors.Internal(err, "failed to delete invite code")
	}
	return nil
}

// Validate reports what a code grants without consuming it.
func (s *InviteService) Validate(ctx context.Context, code string) (*dto.InviteValidation, error) {
	invite, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.InviteValidation{Code: invite.Code, Site: invite.Site, Role: invite.Role, UsesRemaining: invite.UsesRemaining}, nil
}

// Redeem creates the caller's directory entry. The very first user may join without a code
// and becomes admin of the bootstrap site.
func (s *InviteService) Redeem(ctx context.Context, caller *models.JWTClaims, req dto.RedeemInviteRequest) (*models.User, error) {
	if caller == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid signup payload")
	}

	existing, err := s.directory.FindByID(ctx, caller.UserID)
	switch {
	case err == nil && existing.Role == models.RoleRemoved:
		return nil, appErrors.ErrAccessRemoved
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "already a member of a site")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load directory entry")
	}

	user := &models.User{
		ID:              caller.UserID,
		Email:           caller.Email,
		DisplayName:     strings.TrimSpace(req.DisplayName),
		PlanetNumber:    req.PlanetNumber,
		Alliance:        strings.ToUpper(req.Alliance),
		CustomColor:     models.DefaultUserColor,
		DiscordUsername: req.DiscordUsername,
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		user.Role = models.RoleAdmin
		user.Site = s.cfg.BootstrapSite
		created, err := s.repo.Bootstrap(ctx, user)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to create directory entry")
		}
		if !created {
			return nil, appErrors.Clone(appErrors.ErrInviteInvalid, "an invite code is required")
		}
	} else {
		invite, err := s.lookup(ctx, code)
		if err != nil {
			return nil, err
		}
		if _, err := s.repo.RedeemInvite(ctx, invite.ID, user, s.now()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrInviteExhausted
			}
			return nil, appErrors.Internal(err, "failed to redeem invite code")
		}
	}

	if s.activity != nil {
		actor := *caller
		actor.Role = user.Role
		actor.Site = user.Site
		actor.FullName = user.DisplayName
		s.activity.Record(ctx, &actor, models.ActivityUserSignup, map[string]interface{}{
			"code": strings.ToUpper(code), "role": user.Role, "bootstrap": code == "",
		})
	}
	return user, nil
}

func (s *InviteService) lookup(ctx context.Context, code string) (*models.InviteCode, error) {
	invite, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInviteInvalid
		}
		return nil, appErrors.Internal(err, "failed to load invite code")
	}
	if invite.Status != models.InviteActive {
		return nil, appErrors.ErrInviteInvalid
	}
	if !invite.Redeemable() {
		return nil, appErrors.ErrInviteExhausted
	}
	return invite, nil
}

func randomCode(n int) (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
