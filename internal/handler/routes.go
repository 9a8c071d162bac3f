package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/groupcal-api/internal/middleware"
	"github.com/noah-isme/groupcal-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Events     *EventHandler
	Feed       *FeedHandler
	Categories *CategoryHandler
	Templates  *TemplateHandler
	Invites    *InviteHandler
	Users      *UserHandler
	Settings   *SettingsHandler
	Activity   *ActivityHandler
	Exports    *ExportHandler
	Metrics    *MetricsHandler
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, error)
}

// RegisterRoutes mounts the calendar API on group.
func RegisterRoutes(api *gin.RouterGroup, auth authenticator, h Handlers) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	editor := middleware.RequireEditor()

	api.GET("/invites/:code", h.Invites.Validate)
	api.GET("/sites/:site/calendar.ics", h.Exports.Calendar)

	secured := api.Group("", middleware.JWT(auth))
	secured.POST("/invites/redeem", h.Invites.Redeem)
	secured.GET("/me", h.Users.Me)
	secured.PUT("/me", h.Users.UpdateProfile)
	secured.GET("/settings", h.Settings.Get)
	secured.PUT("/settings", admin, h.Settings.Update)
	secured.GET("/system/metrics", admin, h.Metrics.Status)

	site := secured.Group("/sites/:site", middleware.SiteScope())

	events := site.Group("/events")
	events.GET("", h.Events.List)
	events.GET("/:id", h.Events.Get)
	events.POST("", editor, h.Events.Create)
	events.PUT("/:id", editor, h.Events.Update)
	events.DELETE("/:id", editor, h.Events.Delete)

	site.GET("/feed", h.Feed.Feed)
	site.GET("/feed/stream", h.Feed.Stream)
	site.GET("/month", h.Feed.Month)
	site.GET("/clock", h.Feed.Clock)

	categories := site.Group("/categories")
	categories.GET("", h.Categories.List)
	categories.GET("/:id", h.Categories.Get)
	categories.POST("", editor, h.Categories.Create)
	categories.PUT("/:id", editor, h.Categories.Update)
	categories.PUT("/:id/actions", editor, h.Categories.ReplaceActions)
	categories.DELETE("/:id", editor, h.Categories.Delete)

	templates := site.Group("/templates", editor)
	templates.GET("", h.Templates.List)
	templates.GET("/:id", h.Templates.Get)
	templates.POST("", h.Templates.Create)
	templates.POST("/from-week", h.Templates.FromWeek)
	templates.PUT("/:id", h.Templates.Update)
	templates.DELETE("/:id", h.Templates.Delete)
	templates.POST("/:id/apply", h.Templates.Apply)

	invites := site.Group("/invites", admin)
	invites.GET("", h.Invites.List)
	invites.POST("", h.Invites.Create)
	invites.DELETE("/:id", h.Invites.Delete)

	users := site.Group("/users", admin)
	users.GET("", h.Users.List)
	users.PUT("/:id/role", h.Users.UpdateRole)
	users.DELETE("/:id", h.Users.Remove)

	site.GET("/activity", editor, h.Activity.List)
	site.GET("/exports/agenda", h.Exports.Agenda)
	site.GET("/calendar-link", h.Exports.Link)
}
