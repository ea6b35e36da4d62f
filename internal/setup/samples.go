package setup

import "github.com/sylvester-francis/atcc-interview-test/internal/model"

// SampleBusinesses returns fresh copies of the demo directory listings.
func SampleBusinesses() []model.Business {
	return []model.Business{
		{
			BusinessName: "Tamil Spice Restaurant",
			Owner:        model.Owner{FirstName: "Raj", LastName: "Kumar"},
			Contact:      model.ContactInfo{Phone: "(416) 555-0123", Email: "info@tamilspice.ca", Website: "https://tamilspice.ca"},
			Location:     model.Location{Address: "123 Main Street", City: "Toronto", Province: "Ontario", PostalCode: "M5V 3A8"},
			Category:     "restaurant",
			Description:  "Authentic Tamil cuisine serving traditional dishes from Tamil Nadu",
			Services:     []string{"Dine-in", "Takeout", "Catering", "Special Events"},
			IsActive:     true,
		},
		{
			BusinessName: "TechTamil Solutions",
			Owner:        model.Owner{FirstName: "Priya", LastName: "Sharma"},
			Contact:      model.ContactInfo{Phone: "(604) 555-0456", Email: "contact@techtamil.ca", Website: "https://techtamil.ca"},
			Location:     model.Location{Address: "456 Technology Drive", City: "Vancouver", Province: "British Columbia", PostalCode: "V6B 1A1"},
			Category:     "technology",
			Description:  "IT consulting and software development services",
			Services:     []string{"Web Development", "Mobile Apps", "IT Consulting", "Cloud Solutions"},
			IsActive:     true,
		},
		{
			BusinessName: "Tamil Medical Clinic",
			Owner:        model.Owner{FirstName: "Dr. Arun", LastName: "Patel"},
			Contact:      model.ContactInfo{Phone: "(403) 555-0789", Email: "clinic@tamilmedical.ca"},
			Location:     model.Location{Address: "789 Health Avenue", City: "Calgary", Province: "Alberta", PostalCode: "T2P 1J9"},
			Category:     "healthcare",
			Description:  "Comprehensive healthcare services with Tamil-speaking staff",
			Services:     []string{"Family Medicine", "Pediatrics", "Preventive Care", "Health Screenings"},
			IsActive:     true,
		},
	}
}
