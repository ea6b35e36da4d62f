package router // package router defines how HTTP routes are registered for the site

import (
	"net"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/handler"
	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

// Deps carries everything the routes need. Cache may be nil.
type Deps struct {
	Production     bool
	SetupAllowed   bool
	TrustedProxies []*net.IPNet

	Sessions *session.Manager
	Users    middleware.UserFinder
	Limits   *middleware.RateLimits
	Cache    *middleware.ResponseCache

	Auth      *handler.AuthHandler
	Blog      *handler.BlogHandler
	Admin     *handler.AdminHandler
	Events    *handler.EventHandler
	Directory *handler.DirectoryHandler
	Contact   *handler.ContactHandler
	Setup     *handler.SetupHandler
}

// setupPaths are operator bootstrap endpoints called with curl, so they
// carry no CSRF token. They are only mounted outside production unless
// ENABLE_SETUP is set.
var setupPaths = []string{"/setup", "/setup/promote/:email"}

var probePaths = []string{"/health"}

// RegisterRoutes installs the request pipeline and every route. The order
// of the global middleware matters: the sanitizer runs before anything
// reads the body, and the CSRF guard needs the session loaded.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.IPExtractor = middleware.ClientIP(d.Production, d.TrustedProxies...)

	// Probes are neither rate limited nor given a session.
	probe := middleware.SkipPaths(probePaths...)
	e.Use(
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		echomw.BodyLimit("1M"),
		middleware.SecureHeaders(d.Production),
		middleware.RequestLogger(),
		middleware.Sanitize(),
		middleware.Unless(probe, d.Limits.For(config.PolicyGeneral)),
		middleware.Unless(probe, middleware.LoadSession(d.Sessions)),
		middleware.Unless(probe, middleware.CSRF(middleware.CSRFConfig{
			Skipper:  middleware.SkipPaths(setupPaths...),
			Sessions: d.Sessions,
		})),
		middleware.Unless(probe, middleware.CheckAuth(d.Users)),
	)

	e.GET("/health", handler.Health)
	e.GET("/csrf-token", handler.CSRFToken)

	RegisterPublic(e, d)
	RegisterAuth(e, d)
	RegisterAdmin(e, d)
	RegisterEventsAdmin(e, d)
	RegisterDirectoryAdmin(e, d)
	RegisterContact(e, d)
	if d.SetupAllowed && d.Setup != nil {
		RegisterSetup(e, d)
	}
}

// RegisterPublic registers the anonymous browse endpoints. Listing pages
// go through the response cache; detail pages do not because they bump
// view counters.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := d.Cache.Middleware()

	e.GET("/blog", d.Blog.Index, cache)
	e.GET("/blog/:slug", d.Blog.Show)

	e.GET("/events", d.Events.Index, cache)
	e.GET("/events/:id", d.Events.Show, middleware.ValidateID("id"))

	e.GET("/directory", d.Directory.Index, cache)
	e.GET("/directory/:id", d.Directory.Show, middleware.ValidateID("id"))
}

// RegisterAuth registers login, registration and password reset under
// /auth. Login counts only failed attempts against the auth policy.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/auth")
	g.POST("/login", d.Auth.Login, d.Limits.For(config.PolicyAuth))
	g.POST("/register", d.Auth.Register)
	g.POST("/logout", d.Auth.Logout)
	g.GET("/me", d.Auth.Me, middleware.RequireAuth())

	reset := d.Limits.For(config.PolicyPasswordReset)
	g.POST("/forgot-password", d.Auth.ForgotPassword, reset)
	g.POST("/reset-password", d.Auth.ResetPassword, reset)
}

// RegisterContact registers the public mail forms.
func RegisterContact(e *echo.Echo, d Deps) {
	g := e.Group("/contact", d.Limits.For(config.PolicyContact))
	g.POST("/submit", d.Contact.Submit)
	g.POST("/volunteer", d.Contact.Volunteer)
}

// RegisterSetup registers the bootstrap endpoints.
func RegisterSetup(e *echo.Echo, d Deps) {
	e.POST("/setup", d.Setup.Run)
	e.POST("/setup/promote/:email", d.Setup.Promote)
}
