package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.AppSettings, error)
	Upsert(ctx context.Context, settings *models.AppSettings) error
}

// SettingsService reads and updates the install-wide AppSettings record.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	notifier  siteNotifier
	activity  activityRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// SetCollaborators wires change notification and activity recording. Both are optional.
func (s *SettingsService) SetCollaborators(notifier siteNotifier, activity activityRecorder) {
	s.notifier = notifier
	s.activity = activity
}

// Current returns the stored settings, or the defaults of a fresh install.
func (s *SettingsService) Current(ctx context.Context) (models.AppSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.AppSettings{}, appErrors.Internal(err, "failed to load settings")
	}
	return *settings, nil
}

// Update applies the provided fields and keeps the others.
func (s *SettingsService) Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingsRequest) (*models.AppSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid settings payload")
	}
	if req.ServerOffset == nil && req.CurrentSeason == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if req.ServerOffset != nil {
		current.ServerOffset = *req.ServerOffset
	}
	if req.CurrentSeason != nil {
		current.CurrentSeason = *req.CurrentSeason
	}
	if actor != nil {
		by := actor.UserID
		current.UpdatedBy = &by
	}
	current.UpdatedAt = s.now().UTC()

	if err := s.repo.Upsert(ctx, &current); err != nil {
		return nil, appErrors.Internal(err, "failed to save settings")
	}

	if s.notifier != nil {
		s.notifier.Touch(ctx, models.GlobalScope, models.CollectionSettings)
	}
	if s.activity != nil {
		s.activity.Record(ctx, actor, models.ActivityConfigUpdate, map[string]int{
			"serverOffset":  current.ServerOffset,
			"currentSeason": current.CurrentSeason,
		})
	}
	return &current, nil
}
