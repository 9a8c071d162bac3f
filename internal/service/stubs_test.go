package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/groupcal-api/internal/models"
)

type recordedActivity struct {
	Actor   *models.JWTClaims
	Action  models.ActivityType
	Details interface{}
}

type activityRecorderStub struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (s *activityRecorderStub) Record(ctx context.Context, actor *models.JWTClaims, action models.ActivityType, details interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, recordedActivity{Actor: actor, Action: action, Details: details})
}

func (s *activityRecorderStub) actions() []models.ActivityType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActivityType, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type touch struct {
	Site       string
	Collection models.Collection
}

type notifierStub struct {
	touches []touch
}

func (s *notifierStub) Touch(ctx context.Context, site string, collection models.Collection) {
	s.touches = append(s.touches, touch{Site: site, Collection: collection})
}

type settingsProviderStub struct {
	settings models.AppSettings
	err      error
}

func (s settingsProviderStub) Current(ctx context.Context) (models.AppSettings, error) {
	if s.err != nil {
		return models.AppSettings{}, s.err
	}
	return s.settings, nil
}

type directoryStub struct {
	users     map[string]*models.User
	findErr   error
	createErr error
}

func newDirectoryStub(users ...models.User) *directoryStub {
	d := &directoryStub{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		d.users[u.ID] = &u
	}
	return d
}

func (d *directoryStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	u, ok := d.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (d *directoryStub) Create(ctx context.Context, user *models.User) error {
	if d.createErr != nil {
		return d.createErr
	}
	clone := *user
	d.users[user.ID] = &clone
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func editor(site string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin, Site: site, FullName: "Admin"}
}
