// Package queue defines the notification envelope exchanged over the
// message broker and the consumer that drains it.
package queue

import (
	"encoding/json"
	"time"
)

// NotificationQueue is the durable queue all outgoing mail goes through.
const NotificationQueue = "notifications.email"

// Notification kinds.
const (
	KindContactForm   = "contact_form"
	KindVolunteer     = "volunteer_registration"
	KindPasswordReset = "password_reset"
)

// Notification is one mail to send. Payload holds the kind specific
// struct below as JSON.
type Notification struct {
	Kind      string          `json:"kind"`
	To        []string        `json:"to"`
	ReplyTo   string          `json:"reply_to,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContactForm is a message left on the contact page.
type ContactForm struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// VolunteerRegistration is a volunteer sign up.
type VolunteerRegistration struct {
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Skills         string    `json:"skills,omitempty"`
	Availability   string    `json:"availability,omitempty"`
	Experience     string    `json:"experience,omitempty"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// PasswordReset carries the link mailed to a user who forgot a password.
type PasswordReset struct {
	Name      string    `json:"name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNotification wraps payload for the given kind and recipients.
func NewNotification(kind string, to []string, replyTo string, payload any) (Notification, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Kind:      kind,
		To:        to,
		ReplyTo:   replyTo,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (n Notification) Decode(v any) error {
	return json.Unmarshal(n.Payload, v)
}
