package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type categoryRepository interface {
	ListBySite(ctx context.Context, site string) ([]models.Category, error)
	GetByID(ctx context.Context, site, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	ReplaceActions(ctx context.Context, site, id string, actions models.Actions) error
	Delete(ctx context.Context, site, id string) error
}

// CategoryService manages event categories. Events referencing a deleted category keep the
// reference and render without a category.
type CategoryService struct {
	repo      categoryRepository
	validator *validator.Validate
	notifier  siteNotifier
	activity  activityRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo categoryRepository, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// SetCollaborators wires change notification and activity recording.
func (s *CategoryService) SetCollaborators(notifier siteNotifier, activity activityRecorder) {
	s.notifier = notifier
	s.activity = activity
}

// List returns the categories of a site, highest priority first.
func (s *CategoryService) List(ctx context.Context, site string) ([]models.Category, error) {
	categories, err := s.repo.ListBySite(ctx, site)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list categories")
	}
	models.SortCategoriesByPriority(categories)
	return categories, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, site, id string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, site, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Internal(err, "failed to load category")
	}
	return category, nil
}

// Create adds a category to a site.
func (s *CategoryService) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid category payload")
	}
	now := s.now().UTC()
	category := &models.Category{
		ID:        calendar.NewID(),
		Site:      site,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyCategoryRequest(category, req)

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Internal(err, "failed to create category")
	}
	s.afterWrite(ctx, actor, site, models.ActivityCategoryCreate, category)
	return category, nil
}

// Update replaces a category.
func (s *CategoryService) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid category payload")
	}
	category, err := s.Get(ctx, site, id)
	if err != nil {
		return nil, err
	}
	applyCategoryRequest(category, req)
	category.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Internal(err, "failed to update category")
	}
	s.afterWrite(ctx, actor, site, models.ActivityCategoryUpdate, category)
	return category, nil
}

// ReplaceActions overwrites the ordered action list of a category.
func (s *CategoryService) ReplaceActions(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ReplaceActionsRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid actions payload")
	}
	actions := toActions(req.Actions)
	if err := s.repo.ReplaceActions(ctx, site, id, actions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Internal(err, "failed to replace actions")
	}
	category, err := s.Get(ctx, site, id)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, actor, site, models.ActivityCategoryUpdate, category)
	return category, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	category, err := s.Get(ctx, site, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, site, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Internal(err, "failed to delete category")
	}
	s.afterWrite(ctx, actor, site, models.ActivityCategoryDelete, category)
	return nil
}

func (s *CategoryService) afterWrite(ctx context.Context, actor *models.JWTClaims, site string, action models.ActivityType, category *models.Category) {
	if s.notifier != nil {
		s.notifier.Touch(ctx, site, models.CollectionCategories)
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, map[string]string{"categoryId": category.ID, "name": category.Name})
	}
}

func applyCategoryRequest(category *models.Category, req dto.CategoryRequest) {
	category.Name = strings.TrimSpace(req.Name)
	category.Color = req.Color
	category.LabelColor = nonEmpty(req.LabelColor)
	category.Priority = req.Priority
	category.Icon = nonEmpty(req.Icon)
	category.IconColor = nonEmpty(req.IconColor)
	category.Actions = toActions(req.Actions)
}

func toActions(in []dto.ActionRequest) models.Actions {
	actions := make(models.Actions, 0, len(in))
	for _, a := range in {
		actions = append(actions, models.Action{Label: strings.TrimSpace(a.Label), Icon: a.Icon, Color: a.Color})
	}
	return actions
}
