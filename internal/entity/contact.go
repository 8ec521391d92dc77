package entity

import "time"

// Status classifies a contact within the sales pipeline.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusLead     Status = "lead"
	StatusCustomer Status = "customer"
)

// DefaultStatus is applied to new contacts that do not specify one.
const DefaultStatus = StatusActive

// Statuses lists every accepted status value.
var Statuses = []Status{StatusActive, StatusInactive, StatusLead, StatusCustomer}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusLead, StatusCustomer:
		return true
	}
	return false
}

// Address is the postal address embedded in every contact.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

// SocialMedia holds optional profile links.
type SocialMedia struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Facebook string `json:"facebook,omitempty"`
}

// Contact represents a person or organization in the address book.
type Contact struct {
	ID              string       `json:"id,omitempty"`
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Company         string       `json:"company,omitempty"`
	JobTitle        string       `json:"jobTitle,omitempty"`
	Address         Address      `json:"address"`
	Tags            []string     `json:"tags"`
	Notes           string       `json:"notes,omitempty"`
	SocialMedia     *SocialMedia `json:"socialMedia,omitempty"`
	Status          Status       `json:"status"`
	LastContactDate *time.Time   `json:"lastContactDate,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
