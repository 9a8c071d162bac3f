package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	RemoveAccess(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

// UserService manages the site directory.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	activity  activityRecorder
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: ensureValidator(validate), logger: logger}
}

// SetActivity wires activity recording.
func (s *UserService) SetActivity(activity activityRecorder) {
	s.activity = activity
}

// List returns the active members of a site.
func (s *UserService) List(ctx context.Context, site string, q dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Invalid(err, "invalid user filter")
	}
	filter := models.UserFilter{
		Site:      site,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 100
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a directory entry.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// UpdateRole changes the role of a member of site.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.UpdateRoleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid role payload")
	}
	user, err := s.member(ctx, site, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.UserID == id && req.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admins cannot demote themselves")
	}
	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, s.writeError(err, "failed to update role")
	}
	previous := user.Role
	user.Role = req.Role
	s.record(ctx, actor, models.ActivityUserRoleUpdate, map[string]interface{}{"userId": id, "from": previous, "to": req.Role})
	return user, nil
}

// Remove revokes a member's access. The entry is kept with role and site set to removed.
func (s *UserService) Remove(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	if actor != nil && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "admins cannot remove themselves")
	}
	user, err := s.member(ctx, site, id)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveAccess(ctx, id); err != nil {
		return s.writeError(err, "failed to remove user")
	}
	s.record(ctx, actor, models.ActivityUserRemove, map[string]string{"userId": id, "displayName": user.DisplayName})
	return nil
}

// UpdateProfile stores the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.JWTClaims, req dto.UpdateProfileRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid profile payload")
	}
	user, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = strings.TrimSpace(req.DisplayName)
	user.PlanetNumber = req.PlanetNumber
	user.Alliance = strings.ToUpper(req.Alliance)
	user.DiscordUsername = req.DiscordUsername
	if req.CustomColor != "" {
		user.CustomColor = req.CustomColor
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, s.writeError(err, "failed to update profile")
	}
	s.record(ctx, actor, models.ActivityUserProfile, map[string]string{"displayName": user.DisplayName})
	return user, nil
}

func (s *UserService) member(ctx context.Context, site, id string) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Site != site || user.Role == models.RoleRemoved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

func (s *UserService) writeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Internal(err, message)
}

func (s *UserService) record(ctx context.Context, actor *models.JWTClaims, action models.ActivityType, details interface{}) {
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, details)
	}
}
