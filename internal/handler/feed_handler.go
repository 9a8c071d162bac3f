package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/middleware"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

const defaultHeartbeat = 25 * time.Second

type feedService interface {
	Feed(ctx context.Context, site string, q dto.FeedQuery) (*dto.FeedResponse, error)
	Stream(ctx context.Context, site string, q dto.FeedQuery) (<-chan dto.FeedResponse, error)
	Month(ctx context.Context, site string, q dto.MonthQuery) (*dto.MonthView, error)
	Clock(ctx context.Context, q dto.ViewerQuery) (*dto.ClockResponse, error)
}

type subscriberGauge interface {
	FeedOpened() func()
}

// FeedHandler exposes the read side of the calendar.
type FeedHandler struct {
	service     feedService
	subscribers subscriberGauge
	heartbeat   time.Duration
}

// NewFeedHandler constructs a FeedHandler. subscribers may be nil.
func NewFeedHandler(service feedService, subscribers subscriberGauge, heartbeat time.Duration) *FeedHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &FeedHandler{service: service, subscribers: subscribers, heartbeat: heartbeat}
}

// Feed godoc
// @Summary Upcoming and important occurrences
// @Tags Feed
// @Produce json
// @Param site path string true "Site"
// @Param timeline query string false "local or server"
// @Param tz query string false "Viewer IANA time zone"
// @Param limit query int false "Maximum entries"
// @Param priority query int false "Keep only this category priority"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/feed [get]
func (h *FeedHandler) Feed(c *gin.Context) {
	var q dto.FeedQuery
	if !bindQuery(c, &q, "invalid feed parameters") {
		return
	}
	feed, err := h.service.Feed(c.Request.Context(), c.Param("site"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil)
}

// Stream godoc
// @Summary Live feed as server-sent events
// @Description Emits a "feed" event on connect and after every change to the site, and a "heartbeat" event while idle.
// @Tags Feed
// @Produce text/event-stream
// @Param site path string true "Site"
// @Param access_token query string false "Access token for clients that cannot set headers"
// @Router /sites/{site}/feed/stream [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	var q dto.FeedQuery
	if !bindQuery(c, &q, "invalid feed parameters") {
		return
	}
	ctx := c.Request.Context()
	feeds, err := h.service.Stream(ctx, c.Param("site"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.subscribers != nil {
		done := h.subscribers.FeedOpened()
		defer done()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case feed, ok := <-feeds:
			if !ok {
				return false
			}
			c.SSEvent("feed", feed)
			return true
		case at := <-heartbeat.C:
			c.SSEvent("heartbeat", at.UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Month godoc
// @Summary Month grid
// @Tags Feed
// @Produce json
// @Param site path string true "Site"
// @Param year query int false "Year, defaults to the viewer's current year"
// @Param month query int false "Month 1-12, defaults to the viewer's current month"
// @Param timeline query string false "local or server"
// @Param tz query string false "Viewer IANA time zone"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/month [get]
func (h *FeedHandler) Month(c *gin.Context) {
	var q dto.MonthQuery
	if !bindQuery(c, &q, "invalid month parameters") {
		return
	}
	view, err := h.service.Month(c.Request.Context(), c.Param("site"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.Cached)
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// Clock godoc
// @Summary Current time on a timeline
// @Tags Feed
// @Produce json
// @Param timeline query string false "local or server"
// @Param tz query string false "Viewer IANA time zone"
// @Success 200 {object} response.Envelope
// @Param site path string true "Site"
// @Router /sites/{site}/clock [get]
func (h *FeedHandler) Clock(c *gin.Context) {
	var q dto.ViewerQuery
	if !bindQuery(c, &q, "invalid clock parameters") {
		return
	}
	clock, err := h.service.Clock(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clock, nil)
}
