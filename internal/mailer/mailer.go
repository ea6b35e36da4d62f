// Package mailer renders notification mail and delivers it over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ErrUnknownKind is returned by Compose for a kind without a template.
var ErrUnknownKind = errors.New("mailer: unknown notification kind")

// Message is one outgoing HTML mail.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Compose renders the notification into a message.
func Compose(n queue.Notification) (Message, error) {
	var (
		subject string
		data    any
	)
	switch n.Kind {
	case queue.KindContactForm:
		var p queue.ContactForm
		if err := n.Decode(&p); err != nil {
			return Message{}, err
		}
		subject = "Contact Form: " + p.Subject
		if p.Subject == "" {
			subject = "Contact Form: General Inquiry"
		}
		data = p
	case queue.KindVolunteer:
		var p queue.VolunteerRegistration
		if err := n.Decode(&p); err != nil {
			return Message{}, err
		}
		subject = fmt.Sprintf("New Volunteer Registration: %s %s", p.FirstName, p.LastName)
		data = p
	case queue.KindPasswordReset:
		var p queue.PasswordReset
		if err := n.Decode(&p); err != nil {
			return Message{}, err
		}
		subject = "Reset your ATCC password"
		data = p
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, n.Kind+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", n.Kind, err)
	}
	return Message{
		To:      n.To,
		ReplyTo: n.ReplyTo,
		Subject: oneLine(subject),
		HTML:    buf.String(),
	}, nil
}

// Deliver adapts a Sender into a queue handler.
func Deliver(s Sender) queue.HandlerFunc {
	return func(ctx context.Context, n queue.Notification) error {
		m, err := Compose(n)
		if err != nil {
			return err
		}
		return s.Send(ctx, m)
	}
}

// oneLine keeps user text from injecting extra headers.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
