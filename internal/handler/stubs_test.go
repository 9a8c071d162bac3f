package handler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/internal/service"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/feedtoken"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

var testTokens = tokenStub{
	"admin":  {UserID: "u-admin", Role: models.RoleAdmin, Site: "Raid"},
	"leader": {UserID: "u-leader", Role: models.RoleLeader, Site: "Raid"},
	"member": {UserID: "u-member", Role: models.RoleUser, Site: "Raid"},
	"other":  {UserID: "u-other", Role: models.RoleAdmin, Site: "Guild"},
	"new":    {UserID: "u-new"},
}

type eventServiceStub struct {
	created dto.EventRequest
	viewer  *time.Location
	actor   *models.JWTClaims
	listLoc *time.Location
	getErr  error
	deleted string
}

func (s *eventServiceStub) List(ctx context.Context, site string, q dto.EventListQuery, loc *time.Location) ([]models.Event, *models.Pagination, error) {
	s.listLoc = loc
	return []models.Event{{ID: "e1", Site: site, Title: "Standup"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (s *eventServiceStub) Get(ctx context.Context, site, id string) (*models.Event, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Event{ID: id, Site: site}, nil
}

func (s *eventServiceStub) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	s.created, s.viewer, s.actor = req, viewer, actor
	return &models.Event{ID: "new", Site: site, Title: req.Title}, nil
}

func (s *eventServiceStub) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	return &models.Event{ID: id, Site: site, Title: req.Title}, nil
}

func (s *eventServiceStub) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	s.deleted = id
	return nil
}

type feedServiceStub struct {
	updates []dto.FeedResponse
	query   dto.FeedQuery
}

func (s *feedServiceStub) Feed(ctx context.Context, site string, q dto.FeedQuery) (*dto.FeedResponse, error) {
	s.query = q
	return &dto.FeedResponse{Site: site, Version: 1, Timeline: "local"}, nil
}

func (s *feedServiceStub) Stream(ctx context.Context, site string, q dto.FeedQuery) (<-chan dto.FeedResponse, error) {
	ch := make(chan dto.FeedResponse, len(s.updates))
	for _, u := range s.updates {
		ch <- u
	}
	close(ch)
	return ch, nil
}

func (s *feedServiceStub) Month(ctx context.Context, site string, q dto.MonthQuery) (*dto.MonthView, error) {
	return &dto.MonthView{Site: site, Year: q.Year, Month: q.Month, Cached: q.Year < 2000}, nil
}

func (s *feedServiceStub) Clock(ctx context.Context, q dto.ViewerQuery) (*dto.ClockResponse, error) {
	return &dto.ClockResponse{Time: "14:00:00", Timeline: "server", ServerOffset: 2, Season: 5}, nil
}

type gaugeStub struct{ opened, closed atomic.Int32 }

func (g *gaugeStub) FeedOpened() func() {
	g.opened.Add(1)
	return func() { g.closed.Add(1) }
}

type categoryServiceStub struct{}

func (categoryServiceStub) List(ctx context.Context, site string) ([]models.Category, error) {
	return []models.Category{{ID: "c1", Site: site, Name: "VIP"}}, nil
}

func (categoryServiceStub) Get(ctx context.Context, site, id string) (*models.Category, error) {
	return &models.Category{ID: id, Site: site}, nil
}

func (categoryServiceStub) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CategoryRequest) (*models.Category, error) {
	return &models.Category{ID: "c2", Site: site, Name: req.Name}, nil
}

func (categoryServiceStub) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.CategoryRequest) (*models.Category, error) {
	return &models.Category{ID: id, Site: site, Name: req.Name}, nil
}

func (categoryServiceStub) ReplaceActions(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ReplaceActionsRequest) (*models.Category, error) {
	return &models.Category{ID: id, Site: site}, nil
}

func (categoryServiceStub) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	return nil
}

type templateServiceStub struct {
	applied dto.ApplyTemplateRequest
}

func (s *templateServiceStub) List(ctx context.Context, site string) ([]models.Template, error) {
	return nil, nil
}

func (s *templateServiceStub) Get(ctx context.Context, site, id string) (*models.Template, error) {
	return &models.Template{ID: id, Site: site}, nil
}

func (s *templateServiceStub) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.TemplateRequest) (*models.Template, error) {
	return &models.Template{ID: "t1", Site: site, Name: req.Name}, nil
}

func (s *templateServiceStub) Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.TemplateRequest) (*models.Template, error) {
	return &models.Template{ID: id, Site: site, Name: req.Name}, nil
}

func (s *templateServiceStub) Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	return nil
}

func (s *templateServiceStub) Apply(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ApplyTemplateRequest) (*dto.ApplyTemplateResponse, error) {
	s.applied = req
	return &dto.ApplyTemplateResponse{Created: []models.Event{{ID: "e9", Site: site}}}, nil
}

func (s *templateServiceStub) FromWeek(ctx context.Context, actor *models.JWTClaims, site string, req dto.FromWeekRequest) (*models.Template, error) {
	return &models.Template{ID: "t2", Site: site, Name: req.Name}, nil
}

type inviteServiceStub struct {
	redeemedBy *models.JWTClaims
}

func (s *inviteServiceStub) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CreateInviteRequest) (*models.InviteCode, error) {
	return &models.InviteCode{ID: "i1", Code: "ABC123", Site: site, Role: req.Role}, nil
}

func (s *inviteServiceStub) List(ctx context.Context, site string) ([]models.InviteCode, error) {
	return []models.InviteCode{{ID: "i1", Code: "ABC123", Site: site}}, nil
}

func (s *inviteServiceStub) Delete(ctx context.Context, site, id string) error {
	return nil
}

func (s *inviteServiceStub) Validate(ctx context.Context, code string) (*dto.InviteValidation, error) {
	if code != "ABC123" {
		return nil, appErrors.ErrInviteInvalid
	}
	return &dto.InviteValidation{Code: code, Site: "Raid", Role: models.RoleUser}, nil
}

func (s *inviteServiceStub) Redeem(ctx context.Context, caller *models.JWTClaims, req dto.RedeemInviteRequest) (*models.User, error) {
	s.redeemedBy = caller
	return &models.User{ID: caller.UserID, Site: "Raid", Role: models.RoleUser, DisplayName: req.DisplayName}, nil
}

type userServiceStub struct {
	query dto.UserListQuery
}

func (s *userServiceStub) List(ctx context.Context, site string, q dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	s.query = q
	return []models.User{{ID: "u-member", Site: site}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (s *userServiceStub) Get(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, DisplayName: "Me"}, nil
}

func (s *userServiceStub) UpdateRole(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.UpdateRoleRequest) (*models.User, error) {
	return &models.User{ID: id, Site: site, Role: req.Role}, nil
}

func (s *userServiceStub) Remove(ctx context.Context, actor *models.JWTClaims, site, id string) error {
	return nil
}

func (s *userServiceStub) UpdateProfile(ctx context.Context, actor *models.JWTClaims, req dto.UpdateProfileRequest) (*models.User, error) {
	return &models.User{ID: actor.UserID, DisplayName: req.DisplayName}, nil
}

type settingsServiceStub struct{}

func (settingsServiceStub) Current(ctx context.Context) (models.AppSettings, error) {
	return models.AppSettings{ServerOffset: 2, CurrentSeason: 5}, nil
}

func (settingsServiceStub) Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingsRequest) (*models.AppSettings, error) {
	out := models.AppSettings{ServerOffset: 2, CurrentSeason: 5}
	if req.ServerOffset != nil {
		out.ServerOffset = *req.ServerOffset
	}
	return &out, nil
}

type activityServiceStub struct {
	page, pageSize int
}

func (s *activityServiceStub) List(ctx context.Context, site string, page, pageSize int) ([]models.ActivityEntry, *models.Pagination, error) {
	s.page, s.pageSize = page, pageSize
	return nil, &models.Pagination{Page: page, PageSize: pageSize}, nil
}

type exportServiceStub struct {
	verifyErr error
	query     dto.ExportQuery
}

func (s *exportServiceStub) Agenda(ctx context.Context, site string, q dto.ExportQuery) (*service.Document, error) {
	s.query = q
	return &service.Document{Filename: "raid-2024-01.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("date,time\n")}, nil
}

func (s *exportServiceStub) Calendar(ctx context.Context, site string) (*service.Document, error) {
	return &service.Document{Filename: "raid.ics", ContentType: "text/calendar; charset=utf-8", Body: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}, nil
}

func (s *exportServiceStub) SubscriptionLink(actor *models.JWTClaims, site string) (*dto.FeedLink, error) {
	return &dto.FeedLink{URL: "https://cal.example.com/api/v1/sites/" + site + "/calendar.ics?token=t"}, nil
}

func (s *exportServiceStub) VerifyLink(ctx context.Context, token, site string) (*feedtoken.Grant, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &feedtoken.Grant{Site: site, UserID: "u-member"}, nil
}

type apiFixture struct {
	events    *eventServiceStub
	feed      *feedServiceStub
	gauge     *gaugeStub
	templates *templateServiceStub
	invites   *inviteServiceStub
	users     *userServiceStub
	activity  *activityServiceStub
	exports   *exportServiceStub
}

func newAPIFixture() *apiFixture {
	return &apiFixture{
		events:    &eventServiceStub{},
		feed:      &feedServiceStub{},
		gauge:     &gaugeStub{},
		templates: &templateServiceStub{},
		invites:   &inviteServiceStub{},
		users:     &userServiceStub{},
		activity:  &activityServiceStub{},
		exports:   &exportServiceStub{},
	}
}

func (f *apiFixture) handlers() Handlers {
	return Handlers{
		Events:     NewEventHandler(f.events, "UTC"),
		Feed:       NewFeedHandler(f.feed, f.gauge, time.Hour),
		Categories: NewCategoryHandler(categoryServiceStub{}),
		Templates:  NewTemplateHandler(f.templates),
		Invites:    NewInviteHandler(f.invites),
		Users:      NewUserHandler(f.users),
		Settings:   NewSettingsHandler(settingsServiceStub{}),
		Activity:   NewActivityHandler(f.activity),
		Exports:    NewExportHandler(f.exports),
		Metrics:    NewMetricsHandler(service.NewMetricsService()),
	}
}
