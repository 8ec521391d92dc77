package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/query"
)

// InmemContactsRepository keeps contacts in process memory. Stored values are
// copied on the way in and out so callers never share state with the store.
type InmemContactsRepository struct {
	mu       sync.Mutex
	order    []string
	contacts map[string]entity.Contact
}

var _ ContactsRepository = (*InmemContactsRepository)(nil)

// NewInmemContactsRepository builds an empty in-memory repository.
func NewInmemContactsRepository() *InmemContactsRepository {
	return &InmemContactsRepository{contacts: make(map[string]entity.Contact)}
}

// List returns contacts matching the predicate in insertion order.
func (r *InmemContactsRepository) List(_ context.Context, predicate query.Predicate) ([]entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := make([]entity.Contact, 0)
	for _, id := range r.order {
		contact := r.contacts[id]
		if query.Match(predicate, &contact) {
			matches = append(matches, cloneContact(contact))
		}
	}
	return matches, nil
}

// FindByID fetches a contact by identifier.
func (r *InmemContactsRepository) FindByID(_ context.Context, id string) (*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contact, ok := r.contacts[id]
	if !ok {
		return nil, ErrContactNotFound
	}
	clone := cloneContact(contact)
	return &clone, nil
}

// Insert stores a new contact under a random uuid.
func (r *InmemContactsRepository) Insert(_ context.Context, contact *entity.Contact) (*entity.Contact, error) {
	if contact == nil {
		return nil, fmt.Errorf("contact payload is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneContact(*contact)
	for {
		stored.ID = uuid.NewString()
		if _, taken := r.contacts[stored.ID]; !taken {
			break
		}
	}
	r.contacts[stored.ID] = stored
	r.order = append(r.order, stored.ID)

	clone := cloneContact(stored)
	return &clone, nil
}

// Update applies mutate to the stored contact while holding the store lock.
func (r *InmemContactsRepository) Update(_ context.Context, id string, mutate MutateFunc) (*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[id]
	if !ok {
		return nil, ErrContactNotFound
	}

	updated, err := mutate(cloneContact(existing))
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	r.contacts[id] = cloneContact(updated)

	clone := cloneContact(updated)
	return &clone, nil
}

// Delete removes a contact by identifier.
func (r *InmemContactsRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[id]; !ok {
		return ErrContactNotFound
	}
	delete(r.contacts, id)
	r.order = slices.DeleteFunc(r.order, func(candidate string) bool { return candidate == id })
	return nil
}
