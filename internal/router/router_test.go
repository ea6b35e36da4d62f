package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/handler"
	"github.com/sylvester-francis/atcc-interview-test/internal/mailer"
	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
	"github.com/sylvester-francis/atcc-interview-test/internal/ratelimit"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository/repofake"
	"github.com/sylvester-francis/atcc-interview-test/internal/router"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const password = "hunter22"

type fakeNotifier struct {
	mu   sync.Mutex
	sent []queue.Notification
	err  error
}

func (f *fakeNotifier) Publish(_ context.Context, n queue.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type site struct {
	e          *echo.Echo
	sessions   *session.Manager
	users      *repofake.Users
	blogs      *repofake.Blogs
	events     *repofake.Events
	businesses *repofake.Businesses
	notify     *fakeNotifier
	mail       *fakeMail
}

func newSite(t *testing.T, setupAllowed bool) *site {
	t.Helper()
	cfg := config.Config{
		SessionSecret: "router-test-secret",
		BcryptCost:    bcrypt.MinCost,
		BaseURL:       "http://atcc.test",
		AdminEmail:    "root@atcc.test",
		AdminUsername: "root",
	}
	s := &site{
		sessions:   session.NewManager(session.NewMemoryStore(), session.Options{Secret: cfg.SessionSecret}),
		users:      repofake.NewUsers(),
		blogs:      repofake.NewBlogs(),
		events:     repofake.NewEvents(),
		businesses: repofake.NewBusinesses(),
		notify:     &fakeNotifier{},
		mail:       &fakeMail{},
	}
	limits := middleware.NewRateLimits(config.RateLimitConfig{
		Enabled:  true,
		Prefix:   "rl",
		Policies: config.DefaultPolicies(),
	}, ratelimit.NewMemory())

	s.e = echo.New()
	s.e.HTTPErrorHandler = view.ErrorHandler
	router.RegisterRoutes(s.e, router.Deps{
		SetupAllowed: setupAllowed,
		Sessions:     s.sessions,
		Users:        s.users,
		Limits:       limits,
		Auth:         handler.NewAuthHandler(cfg, s.users, repofake.NewTokens(), s.sessions, s.notify),
		Blog:         handler.NewBlogHandler(s.blogs, nil),
		Admin:        handler.NewAdminHandler(s.users, s.blogs, s.events, s.businesses),
		Events:       handler.NewEventHandler(s.events, nil),
		Directory:    handler.NewDirectoryHandler(s.businesses, nil),
		Contact:      handler.NewContactHandler("inbox@atcc.test", s.notify, s.mail),
		Setup:        handler.NewSetupHandler(cfg, s.users, s.businesses, nil),
	})
	return s
}

// addUser stores an account directly.
func (s *site) addUser(t *testing.T, username, role string, active bool) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@atcc.test",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, s.users.Create(context.Background(), u, password, bcrypt.MinCost))
	if !active {
		_, err := s.users.ToggleActive(context.Background(), u.ID)
		require.NoError(t, err)
	}
	return u
}

// browser keeps the session cookie and the latest CSRF token between
// requests, like a page with a form would.
type browser struct {
	t      *testing.T
	s      *site
	cookie *http.Cookie
	token  string
}

func (s *site) browser(t *testing.T) *browser {
	b := &browser{t: t, s: s}
	rec := b.get("/csrf-token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, b.token)
	require.NotNil(t, b.cookie)
	return b
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, "")
}

func (b *browser) post(path, body string) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, body)
}

func (b *browser) do(method, path, body string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	if method != http.MethodGet && b.token != "" {
		req.Header.Set(middleware.CSRFHeader, b.token)
	}
	rec := httptest.NewRecorder()
	b.s.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != b.s.sessions.CookieName() {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			b.cookie = nil
		} else {
			b.cookie = ck
		}
	}
	if tok := rec.Header().Get(middleware.CSRFHeader); tok != "" {
		b.token = tok
	}
	return rec
}

func (b *browser) login(username string) {
	b.t.Helper()
	rec := b.post("/auth/login", `{"email":"`+username+`@atcc.test","password":"`+password+`"}`)
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestHealth(t *testing.T) {
	s := newSite(t, false)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "OK", body["status"])
	require.NotEmpty(t, body["timestamp"])
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	t.Run("polling is not limited and opens no session", func(t *testing.T) {
		s := newSite(t, false)
		limit := config.DefaultPolicies()[config.PolicyGeneral].Max
		for i := 0; i <= limit; i++ {
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
			require.Empty(t, rec.Header().Values(echo.HeaderSetCookie), "request %d", i)
			require.Empty(t, rec.Header().Get("RateLimit-Limit"))
		}
		// The general budget of the same client is untouched: the browser
		// spends one request on /csrf-token, this is the second.
		rec := s.browser(t).get("/events")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, strconv.Itoa(limit-2), rec.Header().Get("RateLimit-Remaining"))
	})
}

func TestCSRFGuardsUnsafeRoutes(t *testing.T) {
	s := newSite(t, false)
	s.addUser(t, "alice", model.RoleAuthor, true)
	login := `{"email":"alice@atcc.test","password":"` + password + `"}`

	t.Run("no session no token", func(t *testing.T) {
		b := &browser{t: t, s: s}
		rec := b.post("/auth/login", login)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"CSRF token missing"}`, rec.Body.String())
	})

	t.Run("tampered token", func(t *testing.T) {
		b := s.browser(t)
		b.token += "x"
		rec := b.post("/auth/login", login)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"Invalid CSRF token"}`, rec.Body.String())
	})

	t.Run("token in json body", func(t *testing.T) {
		b := s.browser(t)
		tok := b.token
		b.token = ""
		rec := b.post("/auth/login", `{"email":"alice@atcc.test","password":"`+password+`","_csrf":"`+tok+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("old token fails after login rotates the secret", func(t *testing.T) {
		b := s.browser(t)
		before := b.token
		b.login("alice")
		require.NotEqual(t, before, b.token)

		b.token = before
		rec := b.post("/auth/logout", "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"Invalid CSRF token"}`, rec.Body.String())
	})
}

func TestLoginLogout(t *testing.T) {
	s := newSite(t, false)
	alice := s.addUser(t, "alice", model.RoleAuthor, true)
	s.addUser(t, "bob", model.RoleAuthor, false)

	b := s.browser(t)
	anonCookie := b.cookie.Value

	rec := b.post("/auth/login", `{"email":"ALICE@atcc.test","password":"wrong-pass"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = b.post("/auth/login", `{"email":"bob@atcc.test","password":"`+password+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"error":"account deactivated"}`, rec.Body.String())

	rec = b.post("/auth/login", `{"email":"not-an-email","password":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "password")

	b.login("alice")
	require.NotEqual(t, anonCookie, b.cookie.Value, "login must issue a new session id")

	rec = b.get("/auth/me")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)["user"].(map[string]any)
	require.Equal(t, alice.ID, me["id"])
	require.NotContains(t, me, "passwordHash")

	rec = b.post("/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"redirect":"/"}`, rec.Body.String())

	rec = b.get("/auth/me")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRateLimitCountsFailuresOnly(t *testing.T) {
	s := newSite(t, false)
	s.addUser(t, "alice", model.RoleAuthor, true)
	b := s.browser(t)

	for i := 0; i < 3; i++ {
		b.login("alice")
	}
	for i := 0; i < 5; i++ {
		rec := b.post("/auth/login", `{"email":"alice@atcc.test","password":"nope-nope"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
	rec := b.post("/auth/login", `{"email":"alice@atcc.test","password":"nope-nope"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many login attempts, please try again later.", decode(t, rec)["error"])
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRegister(t *testing.T) {
	s := newSite(t, false)
	b := s.browser(t)

	rec := b.post("/auth/register", `{"username":"new_user","email":"new@atcc.test","password":"secret1","firstName":"New"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	require.Equal(t, model.RoleAuthor, user["role"])

	rec = b.get("/auth/me")
	require.Equal(t, http.StatusOK, rec.Code)

	other := s.browser(t)
	rec = other.post("/auth/register", `{"username":"new_user","email":"other@atcc.test","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = other.post("/auth/register", `{"username":"x!","email":"bad","password":"123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	require.Len(t, fields, 3)
}

func TestRoleGates(t *testing.T) {
	s := newSite(t, false)
	s.addUser(t, "writer", model.RoleAuthor, true)
	s.addUser(t, "boss", model.RoleAdmin, true)

	t.Run("anonymous json client", func(t *testing.T) {
		rec := s.browser(t).get("/admin/users")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("anonymous page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set(echo.HeaderAccept, "text/html")
		s.e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("author cannot manage users or events", func(t *testing.T) {
		b := s.browser(t)
		b.login("writer")
		require.Equal(t, http.StatusOK, b.get("/admin/dashboard").Code)
		require.Equal(t, http.StatusForbidden, b.get("/admin/users").Code)
		require.Equal(t, http.StatusForbidden, b.get("/events/admin/manage").Code)
		rec := b.post("/directory/admin/new", `{"businessName":"X"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		b := s.browser(t)
		b.login("boss")
		rec := b.get("/admin/users?role=author")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decode(t, rec)["users"], 1)
	})

	t.Run("deactivated admin loses access at once", func(t *testing.T) {
		s.addUser(t, "exboss", model.RoleAdmin, true)
		b := s.browser(t)
		b.login("exboss")
		u, err := s.users.GetByEmail(context.Background(), "exboss@atcc.test")
		require.NoError(t, err)
		_, err = s.users.ToggleActive(context.Background(), u.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, b.get("/admin/users").Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		b := s.browser(t)
		b.login("boss")
		rec := b.post("/admin/users/42/role", `{"role":"editor"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserManagement(t *testing.T) {
	s := newSite(t, false)
	boss := s.addUser(t, "boss", model.RoleAdmin, true)
	writer := s.addUser(t, "writer", model.RoleAuthor, true)
	b := s.browser(t)
	b.login("boss")

	rec := b.post("/admin/users/"+writer.ID+"/role", `{"role":"overlord"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, false, decode(t, rec)["success"])

	rec = b.post("/admin/users/"+writer.ID+"/role", `{"role":"editor"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	u, err := s.users.GetByID(context.Background(), writer.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleEditor, u.Role)

	rec = b.post("/admin/users/"+writer.ID+"/toggle-status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"isActive":false}`, rec.Body.String())

	rec = b.post("/admin/users/"+boss.ID+"/toggle-status", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlogLifecycle(t *testing.T) {
	s := newSite(t, false)
	s.addUser(t, "writer", model.RoleAuthor, true)
	s.addUser(t, "rival", model.RoleAuthor, true)
	s.addUser(t, "boss", model.RoleAdmin, true)

	writer := s.browser(t)
	writer.login("writer")
	rec := writer.post("/admin/blog/new", `{"title":"Pongal Night 2025","content":"A night of music and food.","category":"events","status":"published"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode(t, rec)["blog"].(map[string]any)
	id, slug := post["id"].(string), post["slug"].(string)
	require.Equal(t, "pongal-night-2025", slug)

	rec = writer.get("/blog/" + slug)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode(t, rec)["blog"].(map[string]any)["views"])

	rec = writer.get("/blog?search=pongal")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["blogs"], 1)

	rival := s.browser(t)
	rival.login("rival")
	require.Equal(t, http.StatusNotFound, rival.get("/admin/blog/"+id).Code)
	rec = rival.post("/admin/blog/"+id+"/edit", `{"title":"Hijacked","content":"Not your post at all.","status":"draft"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = writer.post("/admin/blog/"+id+"/edit", `{"title":"Pongal Night","content":"A night of music and food.","status":"draft"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, slug, decode(t, rec)["blog"].(map[string]any)["slug"], "slug kept unless cleared")
	require.Equal(t, http.StatusNotFound, writer.get("/blog/"+slug).Code)

	require.Equal(t, http.StatusForbidden, writer.post("/admin/blog/"+id+"/delete", "").Code)

	boss := s.browser(t)
	boss.login("boss")
	require.Equal(t, http.StatusOK, boss.post("/admin/blog/"+id+"/delete", "").Code)
	require.Equal(t, http.StatusNotFound, boss.get("/admin/blog/"+id).Code)
}

func TestEventAdmin(t *testing.T) {
	s := newSite(t, false)
	s.addUser(t, "ed", model.RoleEditor, true)
	b := s.browser(t)
	b.login("ed")

	rec := b.post("/events/admin/new", `{"title":"Tamil New Year","description":"Celebration with dance and food.","startDate":"2099-04-14T17:00","endDate":"2099-04-14T22:00","category":"cultural","maxAttendees":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["event"].(map[string]any)["id"].(string)

	rec = b.get("/events")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["upcomingEvents"], 1)
	require.Equal(t, http.StatusOK, b.get("/events/"+id).Code)

	rec = b.post("/events/admin/new", `{"title":"Bad","description":"short","startDate":"2099-04-14T17:00","endDate":"2099-04-13T17:00","category":"cultural"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	require.Contains(t, fields, "description")
	require.Contains(t, fields, "endDate")

	require.Equal(t, http.StatusForbidden, b.post("/events/admin/"+id+"/delete", "").Code)
}

func TestDirectory(t *testing.T) {
	s := newSite(t, true)
	s.addUser(t, "boss", model.RoleAdmin, true)
	b := s.browser(t)
	b.login("boss")

	rec := b.post("/directory/admin/new", `{"businessName":"Chennai Bites","ownerFirstName":"Priya","ownerLastName":"Raman","category":"restaurant","city":"Toronto","province":"ON","email":"hello@chennaibites.ca","website":"https://chennaibites.ca","yearEstablished":2015}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["business"].(map[string]any)["id"].(string)

	rec = b.get("/directory?city=toronto")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["businesses"], 1)

	rec = b.post("/directory/admin/"+id+"/toggle-status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusNotFound, b.get("/directory/"+id).Code)

	rec = b.post("/directory/admin/new", `{"businessName":"Too Old","ownerFirstName":"A","ownerLastName":"B","category":"retail","province":"ON","yearEstablished":1700}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode(t, rec)["fields"], "yearEstablished")
}

func TestContact(t *testing.T) {
	form := `{"name":"Kavya","email":"kavya@example.com","subject":"Hello","message":"<b>Hi</b> there, I'd like to join."}`

	t.Run("queued", func(t *testing.T) {
		s := newSite(t, false)
		rec := s.browser(t).post("/contact/submit", form)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, true, decode(t, rec)["success"])

		require.Len(t, s.notify.sent, 1)
		n := s.notify.sent[0]
		require.Equal(t, queue.KindContactForm, n.Kind)
		require.Equal(t, []string{"inbox@atcc.test"}, n.To)
		require.Equal(t, "kavya@example.com", n.ReplyTo)
		var p queue.ContactForm
		require.NoError(t, n.Decode(&p))
		require.NotContains(t, p.Message, "<b>")
		require.Empty(t, s.mail.sent)
	})

	t.Run("broker down falls back to smtp", func(t *testing.T) {
		s := newSite(t, false)
		s.notify.err = errors.New("connection refused")
		rec := s.browser(t).post("/contact/volunteer", `{"firstName":"Arun","lastName":"Kumar","email":"arun@example.com","phone":"+14165550100","skills":"Photography"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, s.mail.sent, 1)
		require.Equal(t, "New Volunteer Registration: Arun Kumar", s.mail.sent[0].Subject)
	})

	t.Run("both down", func(t *testing.T) {
		s := newSite(t, false)
		s.notify.err = errors.New("connection refused")
		s.mail.err = errors.New("smtp timeout")
		rec := s.browser(t).post("/contact/submit", form)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.JSONEq(t, `{"error":"Failed to send message. Please try again later."}`, rec.Body.String())
	})

	t.Run("validation and rate limit", func(t *testing.T) {
		s := newSite(t, false)
		b := s.browser(t)
		rec := b.post("/contact/submit", `{"name":"K","email":"nope","phone":"0123","message":"short"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Len(t, decode(t, rec)["fields"], 4)

		require.Equal(t, http.StatusOK, b.post("/contact/submit", form).Code)
		require.Equal(t, http.StatusOK, b.post("/contact/submit", form).Code)
		rec = b.post("/contact/submit", form)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "Too many form submissions, please try again later.", decode(t, rec)["error"])
	})
}

func TestPasswordReset(t *testing.T) {
	t.Run("unknown email looks the same", func(t *testing.T) {
		s := newSite(t, false)
		rec := s.browser(t).post("/auth/forgot-password", `{"email":"nobody@atcc.test"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Empty(t, s.notify.sent)
	})

	// Three requests fit the password-reset policy: one link, one use and
	// one replay.
	s := newSite(t, false)
	s.addUser(t, "alice", model.RoleAuthor, true)
	b := s.browser(t)

	rec := b.post("/auth/forgot-password", `{"email":"alice@atcc.test"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, s.notify.sent, 1)
	require.Equal(t, queue.KindPasswordReset, s.notify.sent[0].Kind)

	var p queue.PasswordReset
	require.NoError(t, s.notify.sent[0].Decode(&p))
	link, err := url.Parse(p.ResetURL)
	require.NoError(t, err)
	require.Equal(t, "atcc.test", link.Host)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	body := `{"token":"` + token + `","password":"brand-new"}`
	require.Equal(t, http.StatusOK, b.post("/auth/reset-password", body).Code)

	rec = b.post("/auth/reset-password", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"token already used"}`, rec.Body.String())

	rec = b.post("/auth/login", `{"email":"alice@atcc.test","password":"brand-new"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("failed update keeps the link usable", func(t *testing.T) {
		s := newSite(t, false)
		s.addUser(t, "bob", model.RoleAuthor, true)
		b := s.browser(t)

		require.Equal(t, http.StatusAccepted, b.post("/auth/forgot-password", `{"email":"bob@atcc.test"}`).Code)
		require.Len(t, s.notify.sent, 1)
		var p queue.PasswordReset
		require.NoError(t, s.notify.sent[0].Decode(&p))
		link, err := url.Parse(p.ResetURL)
		require.NoError(t, err)
		body := `{"token":"` + link.Query().Get("token") + `","password":"brand-new"}`

		s.users.Err = errors.New("connection reset")
		require.Equal(t, http.StatusInternalServerError, b.post("/auth/reset-password", body).Code)

		s.users.Err = nil
		rec := b.post("/auth/reset-password", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestSetupRoutes(t *testing.T) {
	t.Run("not mounted", func(t *testing.T) {
		s := newSite(t, false)
		for _, r := range s.e.Routes() {
			require.NotContains(t, r.Path, "/setup")
		}
	})

	t.Run("bootstrap without csrf token", func(t *testing.T) {
		s := newSite(t, true)
		anon := &browser{t: t, s: s}

		rec := anon.post("/setup", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		require.Equal(t, true, body["admin"].(map[string]any)["created"])
		require.Len(t, body["generatedPassword"], 16)
		require.Len(t, body["businesses"].(map[string]any)["added"], 3)

		rec = anon.post("/setup", "")
		body = decode(t, rec)
		require.Equal(t, false, body["admin"].(map[string]any)["created"])
		require.NotContains(t, body, "generatedPassword")
		require.Len(t, body["businesses"].(map[string]any)["skipped"], 3)

		s.addUser(t, "writer", model.RoleAuthor, true)
		rec = anon.post("/setup/promote/writer@atcc.test", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, model.RoleAdmin, decode(t, rec)["role"])

		rec = anon.post("/setup/promote/"+url.PathEscape("<x>@atcc.test"), "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, decode(t, rec)["error"], "&lt;x&gt;@atcc.test")
	})
}
