package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
)

// RegisterAdmin registers the dashboard, blog management and user
// management under /admin. Every route requires a login; user management
// is admin only.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/admin", middleware.RequireAuth())
	adminOps := d.Limits.For(config.PolicyAdmin)
	id := middleware.ValidateID("id")

	g.GET("/dashboard", d.Admin.Dashboard, adminOps)

	// ---- Blog ----
	g.GET("/blogs", d.Blog.AdminList)
	g.POST("/blog/new", d.Blog.Create, d.Limits.For(config.PolicyContentCreate))
	g.GET("/blog/:id", d.Blog.Get, id)
	g.POST("/blog/:id/edit", d.Blog.Update, adminOps, id)
	g.POST("/blog/:id/delete", d.Blog.Delete,
		adminOps, middleware.RequireRole(d.Users, model.RoleAdmin, model.RoleEditor), id)

	// ---- Users ----
	onlyAdmin := middleware.RequireRole(d.Users, model.RoleAdmin)
	g.GET("/users", d.Admin.ListUsers, onlyAdmin)
	g.POST("/users/:id/role", d.Admin.UpdateRole, onlyAdmin, id)
	g.POST("/users/:id/toggle-status", d.Admin.ToggleStatus, onlyAdmin, id)
}

// RegisterEventsAdmin registers event management. Editors may create and
// edit; deleting is admin only.
func RegisterEventsAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/events/admin")
	staff := middleware.RequireRole(d.Users, model.RoleAdmin, model.RoleEditor)
	onlyAdmin := middleware.RequireRole(d.Users, model.RoleAdmin)
	id := middleware.ValidateID("id")

	g.GET("/manage", d.Events.Manage, staff)
	g.POST("/new", d.Events.Create, staff)
	g.GET("/:id", d.Events.Get, staff, id)
	g.POST("/:id/edit", d.Events.Update, staff, id)
	g.POST("/:id/delete", d.Events.Delete, onlyAdmin, id)
}

// RegisterDirectoryAdmin registers business directory management.
func RegisterDirectoryAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/directory/admin")
	staff := middleware.RequireRole(d.Users, model.RoleAdmin, model.RoleEditor)
	onlyAdmin := middleware.RequireRole(d.Users, model.RoleAdmin)
	id := middleware.ValidateID("id")

	g.GET("/manage", d.Directory.Manage, staff)
	g.POST("/new", d.Directory.Create, staff)
	g.GET("/:id", d.Directory.Get, staff, id)
	g.POST("/:id/edit", d.Directory.Update, staff, id)
	g.POST("/:id/toggle-status", d.Directory.ToggleStatus, onlyAdmin, id)
	g.POST("/:id/delete", d.Directory.Delete, onlyAdmin, id)
}
