package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, site string, q dto.UserListQuery) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, actor *models.JWTClaims, site, id string, req dto.UpdateRoleRequest) (*models.User, error)
	Remove(ctx context.Context, actor *models.JWTClaims, site, id string) error
	UpdateProfile(ctx context.Context, actor *models.JWTClaims, req dto.UpdateProfileRequest) (*models.User, error)
}

// UserHandler serves the member directory and the caller's profile.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List site members
// @Tags Users
// @Produce json
// @Param site path string true "Site"
// @Param q query string false "Search term"
// @Param sort query string false "planetNumber, alliance or displayName"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sites/{site}/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserListQuery
	if !bindQuery(c, &q, "invalid user filters") {
		return
	}
	users, pagination, err := h.service.List(c.Request.Context(), c.Param("site"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// UpdateRole godoc
// @Summary Change a member's role
// @Tags Users
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param id path string true "User ID"
// @Param payload body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}
	user, err := h.service.UpdateRole(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Remove godoc
// @Summary Remove a member from the site
// @Tags Users
// @Param site path string true "Site"
// @Param id path string true "User ID"
// @Success 204
// @Router /sites/{site}/users/{id} [delete]
func (h *UserHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), claimsFromContext(c), c.Param("site"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Get the caller's directory entry
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
