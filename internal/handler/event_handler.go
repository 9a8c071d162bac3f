package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/internal/service"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, site string, q dto.EventListQuery, loc *time.Location) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, site, id string) (*models.Event, error)
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.EventRequest, viewer *time.Location) (*models.Event, error)
	Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.EventRequest, viewer *time.Location) (*models.Event, error)
	Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error
}

// EventHandler exposes stored event endpoints.
type EventHandler struct {
	service   eventService
	defaultTZ string
}

// NewEventHandler constructs an EventHandler. defaultTZ applies when a request carries no tz.
func NewEventHandler(service eventService, defaultTZ string) *EventHandler {
	return &EventHandler{service: service, defaultTZ: defaultTZ}
}

// List godoc
// @Summary List stored events
// @Tags Events
// @Produce json
// @Param site path string true "Site"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param tz query string false "Viewer IANA time zone"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/events [get]
func (h *EventHandler) List(c *gin.Context) {
	var q dto.EventListQuery
	if !bindQuery(c, &q, "invalid event filter") {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	events, pagination, err := h.service.List(c.Request.Context(), c.Param("site"), q, viewer.Location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get an event; occurrence ids resolve to their anchor
// @Tags Events
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Event or occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("site"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param tz query string false "Zone local wall clocks are entered in"
// @Param payload body dto.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /sites/{site}/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.EventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	event, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("site"), req, viewer.Location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Replace an event
// @Tags Events
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Event or occurrence ID"
// @Param payload body dto.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.EventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	event, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req, viewer.Location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete an event and every occurrence it produces
// @Tags Events
// @Param site path string true "Site"
// @Param id path string true "Event or occurrence ID"
// @Success 204
// @Router /sites/{site}/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *EventHandler) viewer(c *gin.Context) (service.Viewer, bool) {
	var q dto.ViewerQuery
	if !bindQuery(c, &q, "invalid viewer parameters") {
		return service.Viewer{}, false
	}
	viewer, err := service.ResolveViewer(q, h.defaultTZ)
	if err != nil {
		response.Error(c, err)
		return service.Viewer{}, false
	}
	return viewer, true
}
