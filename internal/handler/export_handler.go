package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/internal/service"
	"github.com/noah-isme/groupcal-api/pkg/feedtoken"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type exportService interface {
	Agenda(ctx context.Context, site string, q dto.ExportQuery) (*service.Document, error)
	Calendar(ctx context.Context, site string) (*service.Document, error)
	SubscriptionLink(actor *models.JWTClaims, site string) (*dto.FeedLink, error)
	VerifyLink(ctx context.Context, token, site string) (*feedtoken.Grant, error)
}

// ExportHandler streams agenda files and iCalendar feeds.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Agenda godoc
// @Summary Download a month agenda
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param site path string true "Site"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Param format query string false "csv or pdf"
// @Param tz query string false "IANA time zone"
// @Success 200 {file} file
// @Router /sites/{site}/exports/agenda [get]
func (h *ExportHandler) Agenda(c *gin.Context) {
	var q dto.ExportQuery
	if !bindQuery(c, &q, "invalid export parameters") {
		return
	}
	doc, err := h.service.Agenda(c.Request.Context(), c.Param("site"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// Link godoc
// @Summary Signed iCalendar subscription URL
// @Tags Exports
// @Produce json
// @Param site path string true "Site"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/calendar-link [get]
func (h *ExportHandler) Link(c *gin.Context) {
	link, err := h.service.SubscriptionLink(claimsFromContext(c), c.Param("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Calendar godoc
// @Summary iCalendar feed for calendar apps
// @Description Authenticated by the signed token from the subscription link.
// @Tags Exports
// @Produce text/calendar
// @Param site path string true "Site"
// @Param token query string true "Subscription token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /sites/{site}/calendar.ics [get]
func (h *ExportHandler) Calendar(c *gin.Context) {
	site := c.Param("site")
	if _, err := h.service.VerifyLink(c.Request.Context(), c.Query("token"), site); err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.Calendar(c.Request.Context(), site)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
