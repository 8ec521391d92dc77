package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/octobees/contacts-manager/api/internal/entity"
)

// ContactFilter contains query parameters for the contact listing endpoint.
// Empty fields impose no constraint.
type ContactFilter struct {
	Search string
	Tags   []string
	Status string
}

// Optional tracks whether a JSON field was present in a payload.
// An explicit null sets the field to the zero value of T.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// ContactPatch is a partial contact update. Identifier and timestamps have no
// patch field.
type ContactPatch struct {
	FirstName       Optional[string]              `json:"firstName"`
	LastName        Optional[string]              `json:"lastName"`
	Email           Optional[string]              `json:"email"`
	Phone           Optional[string]              `json:"phone"`
	Company         Optional[string]              `json:"company"`
	JobTitle        Optional[string]              `json:"jobTitle"`
	Address         Optional[entity.Address]      `json:"address"`
	Tags            Optional[[]string]            `json:"tags"`
	Notes           Optional[string]              `json:"notes"`
	SocialMedia     Optional[*entity.SocialMedia] `json:"socialMedia"`
	Status          Optional[entity.Status]       `json:"status"`
	LastContactDate Optional[*time.Time]          `json:"lastContactDate"`
}

// Apply merges the present patch fields onto existing and returns the result.
// Absent fields keep their current value; UpdatedAt is left to the caller.
func (p ContactPatch) Apply(existing entity.Contact) entity.Contact {
	merged := existing
	applyField(&merged.FirstName, p.FirstName)
	applyField(&merged.LastName, p.LastName)
	applyField(&merged.Email, p.Email)
	applyField(&merged.Phone, p.Phone)
	applyField(&merged.Company, p.Company)
	applyField(&merged.JobTitle, p.JobTitle)
	applyField(&merged.Address, p.Address)
	applyField(&merged.Notes, p.Notes)
	applyField(&merged.SocialMedia, p.SocialMedia)
	applyField(&merged.Status, p.Status)
	applyField(&merged.LastContactDate, p.LastContactDate)

	if p.Tags.Set {
		merged.Tags = append([]string{}, p.Tags.Value...)
	} else {
		merged.Tags = append([]string{}, existing.Tags...)
	}
	return merged
}

func applyField[T any](dst *T, field Optional[T]) {
	if field.Set {
		*dst = field.Value
	}
}

// CreateContactResponse is returned after a contact has been stored.
type CreateContactResponse struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}
