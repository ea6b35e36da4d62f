package model

import (
	"strings"
	"time"
)

const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

var (
	EventCategories = []string{"cultural", "community", "fundraising", "educational", "networking", "entertainment"}
	EventStatuses   = []string{EventUpcoming, EventOngoing, EventCompleted, EventCancelled}
)

// Event is a dated community happening. Status is derived from the dates
// every time the event is written and is not refreshed in between.
type Event struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              time.Time  `json:"endDate"`
	Location             Location   `json:"location"`
	Category             string     `json:"category"`
	OrganizerID          string     `json:"organizerId"`
	OrganizerName        string     `json:"organizerName,omitempty"`
	FeaturedImage        string     `json:"featuredImage,omitempty"`
	TicketPriceCents     int        `json:"ticketPriceCents"`
	MaxAttendees         *int       `json:"maxAttendees,omitempty"`
	RegistrationRequired bool       `json:"registrationRequired"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
	Status               string     `json:"status"`
	Tags                 []string   `json:"tags"`
	ExternalLink         string     `json:"externalLink,omitempty"`
	ContactEmail         string     `json:"contactEmail,omitempty"`
	ContactPhone         string     `json:"contactPhone,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// DeriveEventStatus compares now with the event window: after the end is
// completed, inside [start, end] is ongoing, anything else is upcoming.
func DeriveEventStatus(start, end, now time.Time) string {
	switch {
	case end.Before(now):
		return EventCompleted
	case !now.Before(start) && !now.After(end):
		return EventOngoing
	default:
		return EventUpcoming
	}
}

// BeforeSave runs right before an event row is written.
func (e *Event) BeforeSave(now time.Time) {
	e.Title = strings.TrimSpace(e.Title)
	e.Tags = NormalizeTags(e.Tags)
	e.ContactEmail = strings.ToLower(strings.TrimSpace(e.ContactEmail))
	e.Location.trim()
	e.Status = DeriveEventStatus(e.StartDate, e.EndDate, now)
}

func (e Event) IsPast(now time.Time) bool     { return e.EndDate.Before(now) }
func (e Event) IsUpcoming(now time.Time) bool { return e.StartDate.After(now) }
func (e Event) IsOngoing(now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// TicketPrice is the price in dollars.
func (e Event) TicketPrice() float64 { return float64(e.TicketPriceCents) / 100 }
