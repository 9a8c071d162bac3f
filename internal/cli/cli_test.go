package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type recorder struct {
	events     []dto.EventRequest
	eventLocs  []*time.Location
	categories []dto.CategoryRequest
	settings   []dto.UpdateSettingsRequest
	invites    []dto.CreateInviteRequest
	sites      []string
	feedQuery  dto.FeedQuery
	feed       *dto.FeedResponse
	migrated   bool
	released   int
}

func (r *recorder) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.EventRequest, viewer *time.Location) (*models.Event, error) {
	r.events = append(r.events, req)
	r.eventLocs = append(r.eventLocs, viewer)
	r.sites = append(r.sites, site)
	return &models.Event{ID: "e", Site: site, Title: req.Title}, nil
}

type categoryRecorder struct{ r *recorder }

func (c categoryRecorder) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CategoryRequest) (*models.Category, error) {
	c.r.categories = append(c.r.categories, req)
	return &models.Category{ID: "cat-" + strings.ToLower(req.Name), Site: site, Name: req.Name}, nil
}

type settingsRecorder struct{ r *recorder }

func (s settingsRecorder) Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingsRequest) (*models.AppSettings, error) {
	s.r.settings = append(s.r.settings, req)
	out := &models.AppSettings{ServerOffset: 0, CurrentSeason: 1}
	if req.ServerOffset != nil {
		out.ServerOffset = *req.ServerOffset
	}
	if req.CurrentSeason != nil {
		out.CurrentSeason = *req.CurrentSeason
	}
	return out, nil
}

type inviteRecorder struct{ r *recorder }

func (i inviteRecorder) Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CreateInviteRequest) (*models.InviteCode, error) {
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}
	i.r.invites = append(i.r.invites, req)
	return &models.InviteCode{Code: "K7Q2ZP", Site: site, Role: req.Role, UsesRemaining: req.MaxUses}, nil
}

type feedRecorder struct{ r *recorder }

func (f feedRecorder) Feed(ctx context.Context, site string, q dto.FeedQuery) (*dto.FeedResponse, error) {
	f.r.feedQuery = q
	if f.r.feed != nil {
		return f.r.feed, nil
	}
	return &dto.FeedResponse{Site: site}, nil
}

func (r *recorder) loader() Loader {
	return func(ctx context.Context, verbose bool) (*Services, func(), error) {
		return &Services{
			Migrate: func(ctx context.Context) ([]string, error) {
				r.migrated = true
				return []string{"0001_init.sql"}, nil
			},
			Events:      r,
			Categories:  categoryRecorder{r},
			Settings:    settingsRecorder{r},
			Invites:     inviteRecorder{r},
			Feed:        feedRecorder{r},
			DefaultSite: "Calendar",
			DefaultTZ:   "UTC",
		}, func() { r.released++ }, nil
	}
}

func run(t *testing.T, r *recorder, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(r.loader())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand((&recorder{}).loader())
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "seed", "invite", "settings", "upcoming"} {
		assert.Contains(t, names, want)
	}
}

func TestMigrateCommand(t *testing.T) {
	r := &recorder{}
	out, err := run(t, r, "", "migrate")
	require.NoError(t, err)
	assert.True(t, r.migrated)
	assert.Equal(t, 1, r.released)
	assert.Contains(t, out, "applied 0001_init.sql")
}

func TestInviteCreateCommand(t *testing.T) {
	r := &recorder{}
	out, err := run(t, r, "", "invite", "create", "--site", "Raid", "--role", "leader", "--max-uses", "3")
	require.NoError(t, err)
	require.Len(t, r.invites, 1)
	assert.Equal(t, models.RoleLeader, r.invites[0].Role)
	require.NotNil(t, r.invites[0].MaxUses)
	assert.Equal(t, 3, *r.invites[0].MaxUses)
	assert.Contains(t, out, "K7Q2ZP")
	assert.Contains(t, out, "uses=3")

	_, err = run(t, r, "", "invite", "create", "--role", "owner")
	require.Error(t, err)
}

func TestSettingsSetCommand(t *testing.T) {
	r := &recorder{}
	_, err := run(t, r, "", "settings", "set")
	require.Error(t, err)
	assert.Equal(t, 0, r.released)

	out, err := run(t, r, "", "settings", "set", "--server-offset=-5")
	require.NoError(t, err)
	require.Len(t, r.settings, 1)
	require.NotNil(t, r.settings[0].ServerOffset)
	assert.Equal(t, -5, *r.settings[0].ServerOffset)
	assert.Nil(t, r.settings[0].CurrentSeason)
	assert.Contains(t, out, "UTC-5")
}

const seedYAML = `
site: Raid
time_zone: Europe/Berlin
settings:
  server_offset: 2
categories:
  - name: VIP
    color: "#ff0000"
    priority: 3
    actions:
      - label: Join voice
        icon: Users
events:
  - title: Standup
    date: "2024-01-01"
    time: "09:00"
    duration_hours: 0.5
    recurrence: daily
    category: VIP
  - title: Boss
    date: "2024-01-05"
    time: "20:00"
    time_zone: server
    duration_hours: 2
invites:
  - role: user
    max_uses: 10
`

func TestSeedCommand(t *testing.T) {
	r := &recorder{}
	out, err := run(t, r, seedYAML, "seed", "-f", "-")
	require.NoError(t, err)

	require.Len(t, r.settings, 1)
	require.Len(t, r.categories, 1)
	assert.Equal(t, "Join voice", r.categories[0].Actions[0].Label)

	require.Len(t, r.events, 2)
	assert.Equal(t, []string{"Raid", "Raid"}, r.sites)
	require.NotNil(t, r.events[0].CategoryID)
	assert.Equal(t, "cat-vip", *r.events[0].CategoryID)
	assert.Equal(t, models.TimelineLocal, r.events[0].TimeZone)
	assert.Equal(t, models.RecurrenceDaily, r.events[0].Recurrence)
	assert.Equal(t, models.TimelineServer, r.events[1].TimeZone)
	assert.Equal(t, models.RecurrenceNone, r.events[1].Recurrence)
	assert.Equal(t, "Europe/Berlin", r.eventLocs[0].String())

	assert.Contains(t, out, "categories: 1, events: 2")
	assert.Contains(t, out, "invite K7Q2ZP")
}

func TestSeedRejectsUnknownFieldsAndCategories(t *testing.T) {
	_, err := parseSeed(strings.NewReader("site: Raid\ncolour: red\n"))
	require.Error(t, err)

	r := &recorder{}
	_, err = run(t, r, "events:\n  - title: X\n    date: 2024-01-01\n    time: \"10:00\"\n    duration_hours: 1\n    category: Missing\n", "seed", "-f", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "Missing"`)
	assert.Empty(t, r.events)
}

func TestUpcomingCommand(t *testing.T) {
	r := &recorder{feed: &dto.FeedResponse{
		Site:     "Raid",
		Timeline: "server",
		Upcoming: []dto.OccurrenceView{{
			Title:        "Kickoff",
			Start:        time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC),
			DisplayStart: "20:00",
			DisplayEnd:   "21:00",
			Countdown:    "6h 0m",
			Style:        calendar.Style{CategoryName: "VIP", Color: "#ff0000"},
		}},
	}}

	out, err := run(t, r, "", "upcoming", "--site", "Raid", "--timeline", "server", "-n", "3", "--plain")
	require.NoError(t, err)
	assert.Equal(t, "server", r.feedQuery.Timeline)
	assert.Equal(t, 3, r.feedQuery.Limit)
	assert.Equal(t, "Wed 10 Jan\t20:00-21:00\tKickoff\tVIP\t6h 0m\n", out)

	out, err = run(t, r, "", "upcoming", "--site", "Raid")
	require.NoError(t, err)
	assert.Contains(t, out, "Kickoff")
	assert.Contains(t, out, "TIME (server)")
}

func TestUpcomingEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderUpcoming(&buf, &dto.FeedResponse{Site: "Raid"}, false)
	assert.Equal(t, "nothing scheduled on Raid\n", buf.String())
}
