package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/export"
	"github.com/noah-isme/groupcal-api/pkg/feedtoken"
)

type monthStub struct {
	view  dto.MonthView
	query dto.MonthQuery
}

func (m *monthStub) Month(ctx context.Context, site string, q dto.MonthQuery) (*dto.MonthView, error) {
	m.query = q
	view := m.view
	return &view, nil
}

func agendaMonth() dto.MonthView {
	return dto.MonthView{
		Site:  "Calendar",
		Year:  2024,
		Month: 1,
		Days: []dto.DayView{
			{Date: "2024-01-01", Events: []dto.CellView{{ID: "s-1", Title: "Standup", Time: "09:00", IsRecurringInstance: true}}},
			{Date: "2024-01-02"},
			{Date: "2024-01-03", Events: []dto.CellView{{ID: "k", Title: "Kickoff, part 1", Time: "18:00"}}},
		},
	}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *monthStub) {
	t.Helper()
	months := &monthStub{view: agendaMonth()}
	source := &snapshotSourceStub{snapshot: feedSnapshot()}
	signer := feedtoken.NewSigner("secret", time.Hour)
	cfg := ExportConfig{PublicURL: "https://cal.example.com/", APIPrefix: "/api/v1"}
	svc := NewExportService(source, months, signer, cfg, nil, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter(), export.NewICSExporter(""))
	return svc, months
}

func TestExportServiceAgendaCSV(t *testing.T) {
	svc, months := newExportServiceForTest(t)

	doc, err := svc.Agenda(context.Background(), "Calendar", dto.ExportQuery{MonthQuery: dto.MonthQuery{Year: 2024, Month: 1}})
	require.NoError(t, err)
	assert.Equal(t, "calendar-2024-01.csv", doc.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.Equal(t, 2024, months.query.Year)

	body := string(bytes.TrimPrefix(doc.Body, []byte("\xef\xbb\xbf")))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Day,Time,Title,Repeats", strings.TrimSpace(lines[0]))
	assert.Equal(t, "2024-01-01,Monday,09:00,Standup,yes", strings.TrimSpace(lines[1]))
	assert.Equal(t, `2024-01-03,Wednesday,18:00,"Kickoff, part 1",`, strings.TrimSpace(lines[2]))
}

func TestExportServiceAgendaPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	doc, err := svc.Agenda(context.Background(), "Raid Night!", dto.ExportQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "raid-night-2024-01.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))
}

func TestExportServiceAgendaRejectsFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	_, err := svc.Agenda(context.Background(), "Calendar", dto.ExportQuery{Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceCalendar(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	doc, err := svc.Calendar(context.Background(), "Calendar")
	require.NoError(t, err)
	assert.Equal(t, "calendar.ics", doc.Filename)

	body := string(doc.Body)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:standup@groupcal")
	assert.Contains(t, body, "UID:kickoff@groupcal")
	assert.Contains(t, body, "FREQ=DAILY")
	assert.Contains(t, body, "Server time UTC+2")
	assert.NotContains(t, body, "broken@groupcal")
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
}

func TestExportServiceSubscriptionLink(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	actor := &models.JWTClaims{UserID: "u-1", Role: models.RoleUser, Site: "Raid Night"}

	link, err := svc.SubscriptionLink(actor, "Raid Night")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://cal.example.com/api/v1/sites/Raid%20Night/calendar.ics?token="))

	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	grant, err := svc.VerifyLink(context.Background(), token, "Raid Night")
	require.NoError(t, err)
	assert.Equal(t, "u-1", grant.UserID)

	_, err = svc.VerifyLink(context.Background(), token, "Calendar")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.VerifyLink(context.Background(), token+"x", "Raid Night")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc.SetDirectory(newDirectoryStub(models.User{ID: "u-1", Role: models.RoleRemoved, Site: models.RemovedSite}))
	_, err = svc.VerifyLink(context.Background(), token, "Raid Night")
	assert.ErrorIs(t, err, appErrors.ErrAccessRemoved)
}
