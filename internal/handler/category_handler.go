package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type categoryService interface {
	List(ctx context.Context, site string) ([]models.Category, error)
	Get(ctx context.Context, site, id string) (*models.Category, error)
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CategoryRequest) (*models.Category, error)
	Update(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.CategoryRequest) (*models.Category, error)
	ReplaceActions(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.ReplaceActionsRequest) (*models.Category, error)
	Delete(ctx context.Context, actor *models.JWTClaims, site, id string) error
}

// CategoryHandler exposes category endpoints.
type CategoryHandler struct {
	service categoryService
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(service categoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List godoc
// @Summary List categories, highest priority first
// @Tags Categories
// @Produce json
// @Param site path string true "Site"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context(), c.Param("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Get godoc
// @Summary Get a category
// @Tags Categories
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(c.Request.Context(), c.Param("site"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Create godoc
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /sites/{site}/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("site"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update godoc
// @Summary Replace a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Category ID"
// @Param payload body dto.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// ReplaceActions godoc
// @Summary Replace the quick actions of a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "Category ID"
// @Param payload body dto.ReplaceActionsRequest true "Ordered actions"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/categories/{id}/actions [put]
func (h *CategoryHandler) ReplaceActions(c *gin.Context) {
	var req dto.ReplaceActionsRequest
	if !bindJSON(c, &req, "invalid actions payload") {
		return
	}
	category, err := h.service.ReplaceActions(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete a category
// @Tags Categories
// @Param site path string true "Site"
// @Param id path string true "Category ID"
// @Success 204
// @Router /sites/{site}/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
