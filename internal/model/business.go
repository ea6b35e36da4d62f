package model

import (
	"strings"
	"time"
)

var BusinessCategories = []string{
	"restaurant", "retail", "professional_services", "healthcare",
	"beauty_wellness", "automotive", "real_estate", "education",
	"technology", "construction", "entertainment", "finance",
	"grocery", "other",
}

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type Owner struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

type SocialMedia struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Business is a directory listing.
type Business struct {
	ID              string              `json:"id"`
	BusinessName    string              `json:"businessName"`
	Owner           Owner               `json:"ownerName"`
	Contact         ContactInfo         `json:"contactInfo"`
	Location        Location            `json:"location"`
	Category        string              `json:"category"`
	Description     string              `json:"description,omitempty"`
	Services        []string            `json:"services"`
	Logo            string              `json:"logo,omitempty"`
	BusinessHours   map[string]DayHours `json:"businessHours,omitempty"`
	YearEstablished *int                `json:"yearEstablished,omitempty"`
	SocialMedia     SocialMedia         `json:"socialMedia"`
	IsActive        bool                `json:"isActive"`
	IsFeatured      bool                `json:"isFeatured"`
	AddedBy         string              `json:"addedBy,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func (b Business) FullOwnerName() string {
	return strings.TrimSpace(b.Owner.FirstName + " " + b.Owner.LastName)
}

func (b Business) FullAddress() string { return b.Location.String() }

// BeforeSave trims text fields and drops hours for unknown weekdays.
func (b *Business) BeforeSave() {
	b.BusinessName = strings.TrimSpace(b.BusinessName)
	b.Owner.FirstName = strings.TrimSpace(b.Owner.FirstName)
	b.Owner.LastName = strings.TrimSpace(b.Owner.LastName)
	b.Contact.Email = strings.ToLower(strings.TrimSpace(b.Contact.Email))
	b.Contact.Phone = strings.TrimSpace(b.Contact.Phone)
	b.Contact.Website = strings.TrimSpace(b.Contact.Website)
	b.Description = strings.TrimSpace(b.Description)
	b.Location.trim()

	services := make([]string, 0, len(b.Services))
	for _, s := range b.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	b.Services = services

	for day := range b.BusinessHours {
		if !isWeekday(day) {
			delete(b.BusinessHours, day)
		}
	}
}

func isWeekday(d string) bool {
	for _, w := range Weekdays {
		if w == d {
			return true
		}
	}
	return false
}
