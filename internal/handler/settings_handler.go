package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type settingsService interface {
	Current(ctx context.Context) (models.AppSettings, error)
	Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingsRequest) (*models.AppSettings, error)
}

// SettingsHandler exposes the install-wide settings.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get godoc
// @Summary Current server offset and season
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !bindJSON(c, &req, "invalid settings payload") {
		return
	}
	settings, err := h.service.Update(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
