package service

import (
	"fmt"
	"strings"

	"github.com/octobees/contacts-manager/api/internal/entity"
)

// ValidationError indicates that a contact violates the record rules.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateContact checks required fields and the status enumeration.
// Whitespace-only values count as missing.
func ValidateContact(c *entity.Contact) error {
	if c == nil {
		return ValidationError{Message: "contact is required"}
	}

	required := []struct {
		field string
		value string
	}{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address.street", c.Address.Street},
		{"address.city", c.Address.City},
		{"address.state", c.Address.State},
		{"address.country", c.Address.Country},
		{"address.zipCode", c.Address.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return ValidationError{Field: r.field, Message: "is required"}
		}
	}

	if !c.Status.Valid() {
		return ValidationError{Field: "status", Message: fmt.Sprintf("must be one of %s", statusList())}
	}
	return nil
}

func statusList() string {
	values := make([]string, 0, len(entity.Statuses))
	for _, s := range entity.Statuses {
		values = append(values, string(s))
	}
	return strings.Join(values, ", ")
}
