package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
	"github.com/sylvester-francis/atcc-interview-test/internal/utils"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

// resetTTL is how long a mailed reset link stays valid.
const resetTTL = time.Hour

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Sessions *session.Manager
	Notify   Notifier
	Now      func() time.Time
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, s *session.Manager, n Notifier) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, Notify: n, Now: time.Now}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerReq struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
}

type forgotReq struct {
	Email string `json:"email" form:"email"`
}

type resetReq struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// Login verifies the credentials and starts a fresh session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	errs := validation.NewErrors()
	errs.Email("email", req.Email, true)
	errs.Length("password", req.Password, 1, 0)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword("", req.Password)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperr.ErrInvalidCredentials.Error()})
	}
	if err != nil {
		return serverError(c, err, "login: lookup failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		log.Info().Str("email", req.Email).Str("ip", c.RealIP()).Msg("login: wrong password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperr.ErrInvalidCredentials.Error()})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": apperr.ErrAccountDisabled.Error()})
	}

	token, err := h.startSession(c, u.ID)
	if err != nil {
		return serverError(c, err, "login: session failed")
	}
	if err := h.Users.TouchLastLogin(ctx, u.ID, h.Now()); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID).Msg("login: last login not stamped")
	}
	log.Info().Str("user_id", u.ID).Msg("login: ok")
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/admin/dashboard", "user": u, "csrfToken": token})
}

// Register creates an author account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	req.Username = validation.CleanText(req.Username)
	req.FirstName = validation.CleanText(req.FirstName)
	req.LastName = validation.CleanText(req.LastName)

	errs := validation.NewErrors()
	errs.Username("username", req.Username)
	errs.Email("email", req.Email, true)
	newPassword(errs, req.Password)
	errs.Length("firstName", req.FirstName, 0, 50)
	errs.Length("lastName", req.LastName, 0, 50)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := model.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleAuthor,
		IsActive:  true,
	}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "User with this email or username already exists"})
		}
		return serverError(c, err, "register: create failed")
	}

	token, err := h.startSession(c, u.ID)
	if err != nil {
		return serverError(c, err, "register: session failed")
	}
	log.Info().Str("user_id", u.ID).Msg("register: ok")
	return c.JSON(http.StatusCreated, echo.Map{"redirect": "/admin/dashboard", "user": u, "csrfToken": token})
}

// newPassword checks a password that is about to be hashed.
func newPassword(errs validation.Errors, pw string) {
	errs.Length("password", pw, 6, 0)
	if len(pw) > utils.MaxPasswordBytes {
		errs.Add("password", "Password is too long")
	}
}

// startSession swaps the current session for a new one owned by userID and
// returns a CSRF token bound to the new secret.
func (h *AuthHandler) startSession(c echo.Context, userID string) (string, error) {
	s, err := h.Sessions.Regenerate(c, middleware.CurrentSession(c))
	if err != nil {
		return "", err
	}
	s.UserID = userID
	if err := h.Sessions.Save(c, s); err != nil {
		return "", err
	}
	middleware.SetSession(c, s)
	return middleware.IssueToken(c, h.Sessions), nil
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if err := h.Sessions.Destroy(c, s); err != nil {
		log.Warn().Err(err).Msg("logout: destroy failed")
	}
	middleware.SetSession(c, nil)
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/"})
}

// Me returns the logged-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// ForgotPassword always answers 202 so the response does not reveal which
// emails have accounts. Active users get a reset link by mail.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	errs := validation.NewErrors()
	errs.Email("email", req.Email, true)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	h.sendResetLink(ctx, req.Email)

	return c.JSON(http.StatusAccepted, echo.Map{
		"message": "If that email is registered, a reset link has been sent.",
	})
}

// sendResetLink issues and mails a reset token. Failures are only logged.
func (h *AuthHandler) sendResetLink(ctx context.Context, email string) {
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("forgot-password: lookup failed")
		}
		return
	}
	if !u.IsActive {
		return
	}

	rt, err := utils.NewResetToken(h.Cfg.SessionSecret, u.ID, resetTTL)
	if err != nil {
		log.Error().Err(err).Msg("forgot-password: token failed")
		return
	}
	if err := h.Tokens.StoreReset(ctx, u.ID, utils.HashTokenID(rt.ID), rt.Exp); err != nil {
		log.Error().Err(err).Msg("forgot-password: store failed")
		return
	}

	link := h.Cfg.BaseURL + "/auth/reset-password?token=" + url.QueryEscape(rt.Token)
	n, err := queue.NewNotification(queue.KindPasswordReset, []string{u.Email}, "", queue.PasswordReset{
		Name:      u.FullName(),
		ResetURL:  link,
		ExpiresAt: rt.Exp,
	})
	if err == nil {
		err = h.Notify.Publish(ctx, n)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("forgot-password: notification failed")
	}
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	errs := validation.NewErrors()
	errs.Length("token", req.Token, 1, 0)
	newPassword(errs, req.Password)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	userID, jti, err := utils.ParseResetToken(h.Cfg.SessionSecret, req.Token)
	if errors.Is(err, apperr.ErrTokenExpired) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": apperr.ErrTokenExpired.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": apperr.ErrInvalidToken.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Tokens.ConsumeReset(ctx, utils.HashTokenID(jti), h.Now(), func(ctx context.Context, owner string) error {
		if owner != userID {
			return apperr.ErrInvalidToken
		}
		return h.Users.SetPassword(ctx, userID, req.Password, h.Cfg.BcryptCost)
	})
	switch {
	case errors.Is(err, apperr.ErrInvalidToken), errors.Is(err, apperr.ErrTokenUsed), errors.Is(err, apperr.ErrTokenExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case err != nil:
		return storeError(c, err, "reset-password: update failed")
	}
	log.Info().Str("user_id", userID).Msg("reset-password: ok")
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated. You can now log in.", "redirect": "/auth/login"})
}
