package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type activityLister interface {
	List(ctx context.Context, site string, page, pageSize int) ([]models.ActivityEntry, *models.Pagination, error)
}

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	service activityLister
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(service activityLister) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary Recent activity, newest first
// @Tags Activity
// @Produce json
// @Param site path string true "Site"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	entries, pagination, err := h.service.List(c.Request.Context(), c.Param("site"), queryInt(c, "page", 1), queryInt(c, "page_size", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
