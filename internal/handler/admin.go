package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const (
	usersPerPage = 15
	recentBlogs  = 5
)

// AdminHandler serves the dashboard and user management.
type AdminHandler struct {
	Users      UserStore
	Blogs      BlogStore
	Events     EventStore
	Businesses BusinessStore
}

func NewAdminHandler(u UserStore, b BlogStore, e EventStore, biz BusinessStore) *AdminHandler {
	return &AdminHandler{Users: u, Blogs: b, Events: e, Businesses: biz}
}

// Dashboard returns content counters. Admins and editors see site-wide
// numbers, everyone else only their own.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return view.Forbidden(c)
	}
	scope := u.ID
	if u.CanManageAll() {
		scope = ""
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Blogs.Stats(ctx, scope)
	if err != nil {
		return serverError(c, err, "dashboard: blog stats failed")
	}
	events, err := h.Events.Count(ctx, scope)
	if err != nil {
		return serverError(c, err, "dashboard: event count failed")
	}
	businesses, err := h.Businesses.Count(ctx, scope)
	if err != nil {
		return serverError(c, err, "dashboard: business count failed")
	}
	recent, _, err := h.Blogs.ListForAdmin(ctx, scope, repository.Page{Page: 1, PerPage: recentBlogs})
	if err != nil {
		return serverError(c, err, "dashboard: recent blogs failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": u,
		"stats": echo.Map{
			"blogs":      stats,
			"events":     events,
			"businesses": businesses,
		},
		"recentBlogs": recent,
	})
}

// ListUsers pages through accounts, optionally by role and status.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	p := pageParam(c, usersPerPage)
	f := repository.UserFilter{Page: p}
	if r := c.QueryParam("role"); model.ValidRole(r) {
		f.Role = r
	}
	switch c.QueryParam("status") {
	case "active":
		t := true
		f.Active = &t
	case "inactive":
		f.Active = new(bool)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		return serverError(c, err, "users: list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":      users,
		"pagination": paginate(p, total),
		"roles":      model.Roles,
	})
}

type roleReq struct {
	Role string `json:"role" form:"role"`
}

// UpdateRole changes the role of :id.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		return storeError(c, err, "users: role update failed")
	}
	log.Info().Str("target_id", id).Str("role", req.Role).Str("by", currentUserID(c)).Msg("users: role changed")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User role updated successfully"})
}

// ToggleStatus activates or deactivates :id. Admins cannot lock
// themselves out.
func (h *AdminHandler) ToggleStatus(c echo.Context) error {
	id := c.Param("id")
	if id == currentUserID(c) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You cannot deactivate your own account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	active, err := h.Users.ToggleActive(ctx, id)
	if err != nil {
		return storeError(c, err, "users: toggle failed")
	}
	log.Info().Str("target_id", id).Bool("active", active).Str("by", currentUserID(c)).Msg("users: status changed")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "isActive": active})
}

func currentUserID(c echo.Context) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}
