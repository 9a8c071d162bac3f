package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, site string) ([]models.Template, error)
	Get(ctx context.Context, site, id string) (*models.Template, error)
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.TemplateRequest) (*models.Template, error)
	Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.TemplateRequest) (*models.Template, error)
	Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error
	Apply(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ApplyTemplateRequest) (*dto.ApplyTemplateResponse, error)
	FromWeek(ctx context.Context, actor *models.JWTClaims, site string, req dto.FromWeekRequest) (*models.Template, error)
}

// TemplateHandler exposes weekly template endpoints.
type TemplateHandler struct {
	service templateService
}

// NewTemplateHandler constructs a TemplateHandler.
func NewTemplateHandler(service templateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// List godoc
// @Summary List weekly templates
// @Tags Templates
// @Produce json
// @Param site path string true "Site"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context(), c.Param("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get a template
// @Tags Templates
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.service.Get(c.Request.Context(), c.Param("site"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Create godoc
// @Summary Save a weekly template
// @Tags Templates
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param payload body dto.TemplateRequest true "Seven slots, Sunday first"
// @Success 201 {object} response.Envelope
// @Router /sites/{site}/templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.TemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("site"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// Update godoc
// @Summary Replace a weekly template
// @Tags Templates
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Template ID"
// @Param payload body dto.TemplateRequest true "Seven slots, Sunday first"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.TemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Delete godoc
// @Summary Delete a template
// @Tags Templates
// @Param site path string true "Site"
// @Param id path string true "Template ID"
// @Success 204
// @Router /sites/{site}/templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Apply godoc
// @Summary Create this week's events from a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Template ID"
// @Param payload body dto.ApplyTemplateRequest false "Weekdays to apply and viewer zone"
// @Success 201 {object} response.Envelope
// @Router /sites/{site}/templates/{id}/apply [post]
func (h *TemplateHandler) Apply(c *gin.Context) {
	var req dto.ApplyTemplateRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid apply payload") {
		return
	}
	if !bindQuery(c, &req.ViewerQuery, "invalid viewer parameters") {
		return
	}
	res, err := h.service.Apply(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// FromWeek godoc
// @Summary Save the current week as a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param payload body dto.FromWeekRequest true "Template name"
// @Success 201 {object} response.Envelope
// @Router /sites/{site}/templates/from-week [post]
func (h *TemplateHandler) FromWeek(c *gin.Context) {
	var req dto.FromWeekRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	if !bindQuery(c, &req.ViewerQuery, "invalid viewer parameters") {
		return
	}
	tpl, err := h.service.FromWeek(c.Request.Context(), claimsFromContext(c), c.Param("site"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}
