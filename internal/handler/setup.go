package handler

import (
	"errors"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/setup"
)

// SetupHandler exposes the bootstrap steps over HTTP. The router mounts it
// only when setup is allowed.
type SetupHandler struct {
	Cfg        config.Config
	Users      UserStore
	Businesses BusinessStore
	Cache      Purger
}

func NewSetupHandler(cfg config.Config, u UserStore, b BusinessStore, cache Purger) *SetupHandler {
	return &SetupHandler{Cfg: cfg, Users: u, Businesses: b, Cache: cache}
}

// Run creates the first admin and seeds the sample listings. Running it
// again changes nothing.
func (h *SetupHandler) Run(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := setup.CreateAdmin(ctx, h.Users, setup.Admin{
		Email:    h.Cfg.AdminEmail,
		Username: h.Cfg.AdminUsername,
		Password: h.Cfg.AdminPassword,
		Cost:     h.Cfg.BcryptCost,
	})
	if err != nil {
		return serverError(c, err, "setup: admin failed")
	}
	seeded, err := setup.SeedBusinesses(ctx, h.Businesses, admin.User.ID)
	if err != nil {
		return serverError(c, err, "setup: seeding failed")
	}
	if len(seeded.Added) > 0 {
		purge(ctx, h.Cache)
	}
	log.Info().Bool("admin_created", admin.Created).Int("businesses_added", len(seeded.Added)).Msg("setup: done")

	resp := echo.Map{
		"admin": echo.Map{
			"email":   admin.User.Email,
			"created": admin.Created,
		},
		"businesses": seeded,
	}
	if admin.Password != "" {
		resp["generatedPassword"] = admin.Password
	}
	return c.JSON(http.StatusOK, resp)
}

// Promote makes :email an admin. The email is echoed back escaped.
func (h *SetupHandler) Promote(c echo.Context) error {
	email := c.Param("email")
	safe := html.EscapeString(email)

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := setup.Promote(ctx, h.Users, email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No user found with email: " + safe})
	}
	if err != nil {
		return serverError(c, err, "setup: promote failed")
	}
	log.Info().Str("user_id", u.ID).Msg("setup: user promoted")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User promoted to admin: " + safe,
		"role":    u.Role,
	})
}
