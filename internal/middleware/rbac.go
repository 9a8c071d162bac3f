package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
	"github.com/noah-isme/groupcal-api/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowSelf := false
		allowedRoles := make(map[models.UserRole]struct{})

		for _, a := range allowed {
			if a == "SELF" {
				allowSelf = true
				continue
			}
			allowedRoles[models.UserRole(a)] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// RequireEditor admits the roles that may change events, categories and templates.
func RequireEditor() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleLeader)
}

// RequireMember admits any caller holding an active directory entry.
func RequireMember() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleLeader, models.RoleUser)
}

// SiteScope restricts :site routes to members of that site. Removed users and callers
// without a directory entry are rejected.
func SiteScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		switch {
		case claims.Role == models.RoleRemoved:
			response.Error(c, appErrors.ErrAccessRemoved)
			c.Abort()
			return
		case claims.Site == "" || !claims.Role.Valid():
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "join a site with an invite code first"))
			c.Abort()
			return
		}
		if site := c.Param("site"); site != claims.Site {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "not a member of this site"))
			c.Abort()
			return
		}
		c.Next()
	}
}
