package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/mailer"
	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

// ContactHandler takes the contact and volunteer forms and turns them into
// mail for the association inbox.
type ContactHandler struct {
	Recipient string
	Notify    Notifier
	Mail      mailer.Sender
	Now       func() time.Time
}

func NewContactHandler(recipient string, n Notifier, m mailer.Sender) *ContactHandler {
	return &ContactHandler{Recipient: recipient, Notify: n, Mail: m, Now: time.Now}
}

type contactReq struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

type volunteerReq struct {
	FirstName      string `json:"firstName" form:"firstName"`
	LastName       string `json:"lastName" form:"lastName"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Skills         string `json:"skills" form:"skills"`
	Availability   string `json:"availability" form:"availability"`
	Experience     string `json:"experience" form:"experience"`
	AdditionalInfo string `json:"additionalInfo" form:"additionalInfo"`
}

const sendFailed = "Failed to send message. Please try again later."

// Submit handles the contact form.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := queue.ContactForm{
		Name:        validation.CleanText(req.Name),
		Email:       validation.NormalizeEmail(req.Email),
		Phone:       validation.NormalizePhone(req.Phone),
		Subject:     validation.CleanText(req.Subject),
		Message:     validation.CleanText(req.Message),
		SubmittedAt: h.Now().UTC(),
	}
	errs := validation.NewErrors()
	errs.Length("name", p.Name, 2, 100)
	errs.Email("email", p.Email, true)
	errs.Phone("phone", p.Phone, false)
	errs.Length("subject", p.Subject, 0, 200)
	errs.Length("message", p.Message, 10, 2000)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	if err := h.deliver(c, queue.KindContactForm, p.Email, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": sendFailed})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Thank you for your message! We will get back to you soon.",
	})
}

// Volunteer handles the volunteer sign up form.
func (h *ContactHandler) Volunteer(c echo.Context) error {
	var req volunteerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := queue.VolunteerRegistration{
		FirstName:      validation.CleanText(req.FirstName),
		LastName:       validation.CleanText(req.LastName),
		Email:          validation.NormalizeEmail(req.Email),
		Phone:          validation.NormalizePhone(req.Phone),
		Skills:         validation.CleanText(req.Skills),
		Availability:   validation.CleanText(req.Availability),
		Experience:     validation.CleanText(req.Experience),
		AdditionalInfo: validation.CleanText(req.AdditionalInfo),
		SubmittedAt:    h.Now().UTC(),
	}
	errs := validation.NewErrors()
	errs.Length("firstName", p.FirstName, 2, 50)
	errs.Length("lastName", p.LastName, 2, 50)
	errs.Email("email", p.Email, true)
	errs.Phone("phone", p.Phone, true)
	errs.Length("skills", p.Skills, 0, 500)
	errs.Length("availability", p.Availability, 0, 300)
	errs.Length("experience", p.Experience, 0, 1000)
	errs.Length("additionalInfo", p.AdditionalInfo, 0, 1000)
	if !errs.OK() {
		return validationFailed(c, errs)
	}

	if err := h.deliver(c, queue.KindVolunteer, p.Email, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": sendFailed})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Thank you for volunteering! We will contact you soon.",
	})
}

// deliver queues the notification and, when the broker is unavailable,
// sends it directly.
func (h *ContactHandler) deliver(c echo.Context, kind, replyTo string, payload any) error {
	n, err := queue.NewNotification(kind, []string{h.Recipient}, replyTo, payload)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("contact: encode failed")
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err = h.Notify.Publish(ctx, n); err == nil {
		return nil
	}
	log.Warn().Err(err).Str("kind", kind).Msg("contact: queue unavailable, sending directly")

	// SMTP gets its own budget; the publish attempt may have used most of
	// the request one.
	mctx, mcancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer mcancel()
	m, err := mailer.Compose(n)
	if err == nil {
		err = h.Mail.Send(mctx, m)
	}
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("contact: direct send failed")
	}
	return err
}
