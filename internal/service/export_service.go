package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/export"
	"github.com/noah-isme/groupcal-api/pkg/feedtoken"
)

const (
	formatCSV = "csv"
	formatPDF = "pdf"
	uidDomain = "groupcal"
)

type exportSnapshots interface {
	Snapshot(ctx context.Context, site string) (*models.SiteSnapshot, error)
}

type monthRenderer interface {
	Month(ctx context.Context, site string, q dto.MonthQuery) (*dto.MonthView, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

type calendarRenderer interface {
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	// PublicURL is the externally reachable base of the API, e.g. https://cal.example.com.
	PublicURL string
	APIPrefix string
}

// Document is a rendered export ready to stream.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders month agendas and iCalendar feeds, and signs subscription links.
type ExportService struct {
	snapshots exportSnapshots
	months    monthRenderer
	csv       sheetRenderer
	pdf       sheetRenderer
	ics       calendarRenderer
	links     *feedtoken.Signer
	directory authDirectory
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers get the defaults.
func NewExportService(snapshots exportSnapshots, months monthRenderer, links *feedtoken.Signer, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger, csv, pdf sheetRenderer, icsRenderer calendarRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = &export.PDFExporter{Widths: []float64{2, 1.2, 1, 5, 1.2}}
	}
	if icsRenderer == nil {
		icsRenderer = export.NewICSExporter("")
	}
	return &ExportService{
		snapshots: snapshots,
		months:    months,
		csv:       csv,
		pdf:       pdf,
		ics:       icsRenderer,
		links:     links,
		validator: ensureValidator(validate),
		logger:    logger,
		cfg:       cfg,
	}
}

// SetDirectory makes VerifyLink reject links of users who left the site.
func (s *ExportService) SetDirectory(directory authDirectory) {
	s.directory = directory
}

// Agenda renders the month grid as a flat agenda in CSV or PDF.
func (s *ExportService) Agenda(ctx context.Context, site string, q dto.ExportQuery) (*Document, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Invalid(err, "invalid export query")
	}
	view, err := s.months.Month(ctx, site, q.MonthQuery)
	if err != nil {
		return nil, err
	}

	sheet := export.Sheet{
		Title:   fmt.Sprintf("%s · %s %d", site, time.Month(view.Month), view.Year),
		Headers: []string{"Date", "Day", "Time", "Title", "Repeats"},
	}
	for _, day := range view.Days {
		date, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			return nil, appErrors.Internal(err, "malformed day in month view")
		}
		for _, cell := range day.Events {
			repeats := ""
			if cell.IsRecurringInstance {
				repeats = "yes"
			}
			sheet.Rows = append(sheet.Rows, []string{day.Date, date.Weekday().String(), cell.Time, cell.Title, repeats})
		}
	}

	base := fmt.Sprintf("%s-%04d-%02d", slug(site), view.Year, view.Month)
	switch q.Format {
	case "", formatCSV:
		body, err := s.csv.Render(sheet)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render csv")
		}
		return &Document{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8", Body: body}, nil
	case formatPDF:
		body, err := s.pdf.Render(sheet)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render pdf")
		}
		return &Document{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// Calendar renders every stored event of site as an iCalendar feed. Recurring events are
// written once with an RRULE instead of being expanded.
func (s *ExportService) Calendar(ctx context.Context, site string) (*Document, error) {
	snapshot, err := s.snapshots.Snapshot(ctx, site)
	if err != nil {
		return nil, err
	}
	categories := calendar.IndexCategories(snapshot.Categories)

	events := make([]export.CalendarEvent, 0, len(snapshot.Events))
	for _, e := range snapshot.Events {
		if err := calendar.Validate(e); err != nil {
			s.logger.Warn("skipping invalid stored event", zap.String("site", site), zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		ce := export.CalendarEvent{
			UID:       e.ID + "@" + uidDomain,
			Summary:   e.Title,
			Start:     e.Start,
			End:       e.End(),
			Created:   e.CreatedAt,
			Modified:  e.UpdatedAt,
			Frequency: frequencyOf(e.Recurrence),
		}
		if ce.Frequency != export.FrequencyNone {
			ce.Until = e.RepeatsUntil
		}
		if e.CategoryID != nil {
			if cat, ok := categories[*e.CategoryID]; ok {
				ce.Category = cat.Name
			}
		}
		if e.TimeZone == models.TimelineServer {
			ce.Description = fmt.Sprintf("Server time UTC%+d", snapshot.Settings.ServerOffset)
		}
		events = append(events, ce)
	}

	body, err := s.ics.Render(site, events)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render calendar")
	}
	return &Document{Filename: slug(site) + ".ics", ContentType: "text/calendar; charset=utf-8", Body: body}, nil
}

// SubscriptionLink signs a calendar feed URL for the caller's site.
func (s *ExportService) SubscriptionLink(actor *models.JWTClaims, site string) (*dto.FeedLink, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if s.links == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar subscriptions are disabled")
	}
	token, expiresAt, err := s.links.Issue(site, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign subscription link")
	}
	path := fmt.Sprintf("%s/sites/%s/calendar.ics", strings.TrimRight(s.cfg.APIPrefix, "/"), url.PathEscape(site))
	link := strings.TrimRight(s.cfg.PublicURL, "/") + path + "?token=" + url.QueryEscape(token)
	return &dto.FeedLink{URL: link, ExpiresAt: expiresAt.UTC()}, nil
}

// VerifyLink checks a subscription token against the requested site.
func (s *ExportService) VerifyLink(ctx context.Context, token, site string) (*feedtoken.Grant, error) {
	if s.links == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "calendar subscriptions are disabled")
	}
	grant, err := s.links.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid subscription link")
	}
	if grant.Site != site {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subscription link is for another site")
	}
	if s.directory != nil {
		user, err := s.directory.FindByID(ctx, grant.UserID)
		if err != nil || user.Site != site || user.Role == models.RoleRemoved {
			return nil, appErrors.ErrAccessRemoved
		}
	}
	return &grant, nil
}

func frequencyOf(r models.Recurrence) export.Frequency {
	switch r {
	case models.RecurrenceDaily:
		return export.FrequencyDaily
	case models.RecurrenceWeekly:
		return export.FrequencyWeekly
	case models.RecurrenceMonthly:
		return export.FrequencyMonthly
	}
	return export.FrequencyNone
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "calendar"
	}
	return out
}
