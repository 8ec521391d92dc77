package repository

import (
	"context"
	"errors"

	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/query"
)

// ErrContactNotFound is returned when an identifier does not resolve to a
// stored contact, including identifiers the store cannot parse.
var ErrContactNotFound = errors.New("contact not found")

// StoreError wraps a failure reported by the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the driver error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// MutateFunc derives the new state of a contact from its stored state.
// Returning an error aborts the update without writing.
type MutateFunc func(existing entity.Contact) (entity.Contact, error)

// ContactsRepository describes persistence operations for contacts.
type ContactsRepository interface {
	List(ctx context.Context, predicate query.Predicate) ([]entity.Contact, error)
	FindByID(ctx context.Context, id string) (*entity.Contact, error)
	// Insert stores a new contact under a freshly assigned identifier.
	Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error)
	Update(ctx context.Context, id string, mutate MutateFunc) (*entity.Contact, error)
	Delete(ctx context.Context, id string) error
}

func cloneContact(c entity.Contact) entity.Contact {
	clone := c
	clone.Tags = append([]string{}, c.Tags...)
	if c.SocialMedia != nil {
		social := *c.SocialMedia
		clone.SocialMedia = &social
	}
	if c.LastContactDate != nil {
		ts := *c.LastContactDate
		clone.LastContactDate = &ts
	}
	return clone
}
