package model

import "strings"

// Location is a postal address shared by events and businesses.
type Location struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
}

func (l *Location) trim() {
	l.Address = strings.TrimSpace(l.Address)
	l.City = strings.TrimSpace(l.City)
	l.Province = strings.TrimSpace(l.Province)
	l.PostalCode = strings.ToUpper(strings.TrimSpace(l.PostalCode))
}

// String joins the non-empty parts with ", ".
func (l Location) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Address, l.City, l.Province, l.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
