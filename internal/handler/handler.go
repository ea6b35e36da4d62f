// Package handler holds the HTTP handlers. Each handler declares the store
// methods it needs as a small interface; the MySQL repositories and the
// in-memory fakes both satisfy them.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

// reqTimeout bounds the store calls of one request.
const reqTimeout = 5 * time.Second

type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]model.User, int, error)
	UpdateRole(ctx context.Context, id, role string) error
	PromoteByEmail(ctx context.Context, email string) (*model.User, error)
	ToggleActive(ctx context.Context, id string) (bool, error)
	SetPassword(ctx context.Context, id, password string, cost int) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type BlogStore interface {
	Create(ctx context.Context, b *model.Blog) error
	Update(ctx context.Context, b *model.Blog) error
	GetByID(ctx context.Context, id string) (*model.Blog, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*model.Blog, error)
	IncrementViews(ctx context.Context, id string) error
	ListPublished(ctx context.Context, f repository.BlogFilter) ([]model.Blog, int, error)
	Related(ctx context.Context, b *model.Blog, n int) ([]model.Blog, error)
	ListForAdmin(ctx context.Context, authorID string, p repository.Page) ([]model.Blog, int, error)
	Stats(ctx context.Context, authorID string) (repository.BlogStats, error)
	Delete(ctx context.Context, id string) error
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Upcoming(ctx context.Context, category string, n int) ([]model.Event, error)
	Past(ctx context.Context, category string, n int) ([]model.Event, error)
	Related(ctx context.Context, e *model.Event, n int) ([]model.Event, error)
	List(ctx context.Context, p repository.Page) ([]model.Event, int, error)
	Count(ctx context.Context, organizerID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type BusinessStore interface {
	Create(ctx context.Context, b *model.Business) error
	Update(ctx context.Context, b *model.Business) error
	GetByID(ctx context.Context, id string) (*model.Business, error)
	GetActiveByID(ctx context.Context, id string) (*model.Business, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ListActive(ctx context.Context, f repository.DirectoryFilter) ([]model.Business, int, error)
	Related(ctx context.Context, b *model.Business, n int) ([]model.Business, error)
	ListAll(ctx context.Context, p repository.Page) ([]model.Business, int, error)
	Facets(ctx context.Context) (repository.DirectoryFacets, error)
	ToggleActive(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context, addedBy string) (int, error)
	Delete(ctx context.Context, id string) error
}

type TokenStore interface {
	StoreReset(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ConsumeReset(ctx context.Context, tokenHash string, now time.Time, apply func(ctx context.Context, userID string) error) error
}

// Notifier queues outgoing mail.
type Notifier interface {
	Publish(ctx context.Context, n queue.Notification) error
}

// Purger drops cached public listings after content changes.
type Purger interface {
	Purge(ctx context.Context) error
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), reqTimeout)
}

func validationFailed(c echo.Context, errs validation.Errors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": errs})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// serverError logs err and answers 500 without leaking it.
func serverError(c echo.Context, err error, what string) error {
	log.Error().Err(err).Str("path", c.Path()).Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Msg(what)
	return view.ServerError(c)
}

// storeError maps repository sentinels to responses.
func storeError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return view.NotFound(c)
	case errors.Is(err, repository.ErrForbidden):
		return view.Forbidden(c)
	case errors.Is(err, repository.ErrSlugConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
	}
	return serverError(c, err, what)
}

// pageParam reads ?page, defaulting to the first page.
func pageParam(c echo.Context, perPage int) repository.Page {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		n = 1
	}
	return repository.Page{Page: n, PerPage: perPage}
}

type pagination struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func paginate(p repository.Page, count int) pagination {
	pages := (count + p.PerPage - 1) / p.PerPage
	return pagination{
		Current: p.Page,
		Total:   pages,
		Count:   count,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

// purge is best effort; a stale listing expires with the cache TTL.
func purge(ctx context.Context, p Purger) {
	if p == nil {
		return
	}
	if err := p.Purge(ctx); err != nil {
		log.Warn().Err(err).Msg("cache: purge failed")
	}
}

// currentUser is the user attached by the auth gates. It is nil when the
// session outlived its account, which callers answer with 403.
func currentUser(c echo.Context) *model.User {
	return middleware.CurrentUser(c)
}
