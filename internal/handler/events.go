package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const (
	eventsPerSection  = 6
	adminEventsPage   = 20
	relatedEvents     = 3
	maxEventAttendees = 10000
)

// eventTimeLayouts are accepted for start and end; the second is what a
// datetime-local input submits and is read as UTC.
var eventTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

// EventHandler serves the public calendar and event management.
type EventHandler struct {
	Events EventStore
	Cache  Purger
}

func NewEventHandler(e EventStore, cache Purger) *EventHandler {
	return &EventHandler{Events: e, Cache: cache}
}

type eventReq struct {
	Title                string      `json:"title" form:"title"`
	Description          string      `json:"description" form:"description"`
	StartDate            string      `json:"startDate" form:"startDate"`
	EndDate              string      `json:"endDate" form:"endDate"`
	Category             string      `json:"category" form:"category"`
	Address              string      `json:"address" form:"address"`
	City                 string      `json:"city" form:"city"`
	Province             string      `json:"province" form:"province"`
	PostalCode           string      `json:"postalCode" form:"postalCode"`
	FeaturedImage        string      `json:"featuredImage" form:"featuredImage"`
	MaxAttendees         json.Number `json:"maxAttendees" form:"maxAttendees"`
	TicketPrice          json.Number `json:"ticketPrice" form:"ticketPrice"`
	RegistrationRequired bool        `json:"registrationRequired" form:"registrationRequired"`
	Tags                 string      `json:"tags" form:"tags"`
	ExternalLink         string      `json:"externalLink" form:"externalLink"`
	ContactEmail         string      `json:"contactEmail" form:"contactEmail"`
	ContactPhone         string      `json:"contactPhone" form:"contactPhone"`
}

// toEvent validates the form and copies it onto e.
func (r *eventReq) toEvent(e *model.Event) validation.Errors {
	errs := validation.NewErrors()
	title := validation.CleanText(r.Title)
	desc := validation.CleanText(r.Description)
	errs.Length("title", title, 1, 200)
	errs.Length("description", desc, 10, 5000)

	start, okStart := parseEventTime(r.StartDate)
	end, okEnd := parseEventTime(r.EndDate)
	if !okStart {
		errs.Add("startDate", "Please provide a valid start date")
	}
	if !okEnd {
		errs.Add("endDate", "Please provide a valid end date")
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("endDate", "End date must be after the start date")
	}

	category := strings.TrimSpace(r.Category)
	errs.OneOf("category", category, model.EventCategories, false)
	if category == "" {
		category = "community"
	}

	var maxAttendees *int
	if s := r.MaxAttendees.String(); s != "" {
		n, err := r.MaxAttendees.Int64()
		if err != nil || n < 1 || n > maxEventAttendees {
			errs.Add("maxAttendees", "Max attendees must be between 1 and 10000")
		} else {
			v := int(n)
			maxAttendees = &v
		}
	}
	var priceCents int
	if s := r.TicketPrice.String(); s != "" {
		f, err := r.TicketPrice.Float64()
		if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			errs.Add("ticketPrice", "Ticket price must be zero or more")
		} else {
			priceCents = int(math.Round(f * 100))
		}
	}

	email := validation.NormalizeEmail(r.ContactEmail)
	errs.Email("contactEmail", email, false)
	errs.Phone("contactPhone", r.ContactPhone, false)
	errs.Website("externalLink", strings.TrimSpace(r.ExternalLink))
	if !errs.OK() {
		return errs
	}

	e.Title = title
	e.Description = desc
	e.StartDate = start
	e.EndDate = end
	e.Category = category
	e.Location = model.Location{
		Address:    validation.CleanText(r.Address),
		City:       validation.CleanText(r.City),
		Province:   validation.CleanText(r.Province),
		PostalCode: validation.CleanText(r.PostalCode),
	}
	e.FeaturedImage = strings.TrimSpace(r.FeaturedImage)
	e.MaxAttendees = maxAttendees
	e.TicketPriceCents = priceCents
	e.RegistrationRequired = r.RegistrationRequired
	e.Tags = model.ParseTags(r.Tags)
	e.ExternalLink = strings.TrimSpace(r.ExternalLink)
	e.ContactEmail = email
	e.ContactPhone = validation.NormalizePhone(r.ContactPhone)
	return errs
}

func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// categoryParam returns ?category when it names a known category.
func categoryParam(c echo.Context, known []string) string {
	v := c.QueryParam("category")
	for _, k := range known {
		if v == k {
			return v
		}
	}
	return ""
}

// Index returns the next and the most recent events.
func (h *EventHandler) Index(c echo.Context) error {
	category := categoryParam(c, model.EventCategories)
	ctx, cancel := reqCtx(c)
	defer cancel()

	upcoming, err := h.Events.Upcoming(ctx, category, eventsPerSection)
	if err != nil {
		return serverError(c, err, "events: upcoming failed")
	}
	past, err := h.Events.Past(ctx, category, eventsPerSection)
	if err != nil {
		return serverError(c, err, "events: past failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"upcomingEvents": upcoming,
		"pastEvents":     past,
		"categories":     model.EventCategories,
		"category":       category,
	})
}

// Show returns one event and a few related upcoming ones.
func (h *EventHandler) Show(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "events: load failed")
	}
	related, err := h.Events.Related(ctx, e, relatedEvents)
	if err != nil {
		return serverError(c, err, "events: related failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"event": e, "related": related})
}

// Manage lists every event for editors.
func (h *EventHandler) Manage(c echo.Context) error {
	p := pageParam(c, adminEventsPage)
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, total, err := h.Events.List(ctx, p)
	if err != nil {
		return serverError(c, err, "events: admin list failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events, "pagination": paginate(p, total)})
}

func (h *EventHandler) Create(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return view.Forbidden(c)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e := model.Event{OrganizerID: u.ID}
	if errs := req.toEvent(&e); !errs.OK() {
		return validationFailed(c, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.Create(ctx, &e); err != nil {
		return serverError(c, err, "events: create failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("event_id", e.ID).Str("status", e.Status).Msg("events: created")
	return c.JSON(http.StatusCreated, echo.Map{"event": e, "redirect": "/events/admin/manage"})
}

func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Events.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "events: load failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"event": e})
}

func (h *EventHandler) Update(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err, "events: load failed")
	}
	if errs := req.toEvent(e); !errs.OK() {
		return validationFailed(c, errs)
	}
	if err := h.Events.Update(ctx, e); err != nil {
		return storeError(c, err, "events: update failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("event_id", e.ID).Str("status", e.Status).Msg("events: updated")
	return c.JSON(http.StatusOK, echo.Map{"event": e, "redirect": "/events/admin/manage"})
}

func (h *EventHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Events.Delete(ctx, id); err != nil {
		return storeError(c, err, "events: delete failed")
	}
	purge(ctx, h.Cache)
	log.Info().Str("event_id", id).Msg("events: deleted")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "redirect": "/events/admin/manage"})
}
