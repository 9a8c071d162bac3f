package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

type inviteService interface {
	Create(ctx context.Context, actor *models.JWTClaims, site string, req dto.CreateInviteRequest) (*models.InviteCode, error)
	List(ctx context.Context, site string) ([]models.InviteCode, error)
	Delete(ctx context.Context, site, id string) error
	Validate(ctx context.Context, code string) (*dto.InviteValidation, error)
	Redeem(ctx context.Context, caller *models.JWTClaims, req dto.RedeemInviteRequest) (*models.User, error)
}

// InviteHandler manages invite codes and site onboarding.
type InviteHandler struct {
	service inviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(service inviteService) *InviteHandler {
	return &InviteHandler{service: service}
}

// Create godoc
// @Summary Mint an invite code
// @Tags Invites
// @Accept json
// @Produce json
// @Param site path string true "Site"
// @Param payload body dto.CreateInviteRequest true "Role and optional use limit"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sites/{site}/invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	var req dto.CreateInviteRequest
	if !bindJSON(c, &req, "invalid invite payload") {
		return
	}
	invite, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("site"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invite)
}

// List godoc
// @Summary List active invite codes
// @Tags Invites
// @Produce json
// @Param site path string true "Site"
// @Success 200 {object} response.Envelope
// @Router /sites/{site}/invites [get]
func (h *InviteHandler) List(c *gin.Context) {
	invites, err := h.service.List(c.Request.Context(), c.Param("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invites, nil)
}

// Delete godoc
// @Summary Revoke an invite code
// @Tags Invites
// @Param site path string true "Site"
// @Param id path string true "Invite ID"
// @Success 204
// @Router /sites/{site}/invites/{id} [delete]
func (h *InviteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("site"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Check an invite code before signing up
// @Tags Invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /invites/{code} [get]
func (h *InviteHandler) Validate(c *gin.Context) {
	res, err := h.service.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Redeem godoc
// @Summary Join a site with an invite code
// @Description The first account of a fresh install may omit the code and becomes admin.
// @Tags Invites
// @Accept json
// @Produce json
// @Param payload body dto.RedeemInviteRequest true "Code and profile"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invites/redeem [post]
func (h *InviteHandler) Redeem(c *gin.Context) {
	var req dto.RedeemInviteRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}
	user, err := h.service.Redeem(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
