package service

import (
	"context"
	"errors"
	"time"

	"github.com/octobees/contacts-manager/api/internal/dto"
	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/metrics"
	"github.com/octobees/contacts-manager/api/internal/query"
	"github.com/octobees/contacts-manager/api/internal/repository"
)

// ContactsService applies validation, defaults, timestamps and merge rules
// on top of a contacts repository.
type ContactsService struct {
	repo       repository.ContactsRepository
	normalizer *ContactNormalizer
	metrics    *metrics.Metrics
	now        func() time.Time
}

// ContactsServiceOption configures optional dependencies.
type ContactsServiceOption func(*ContactsService)

// WithNormalizer canonicalises phone, email and social links before writes.
func WithNormalizer(n *ContactNormalizer) ContactsServiceOption {
	return func(s *ContactsService) {
		s.normalizer = n
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) ContactsServiceOption {
	return func(s *ContactsService) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ContactsServiceOption {
	return func(s *ContactsService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewContactsService creates a new instance of ContactsService.
func NewContactsService(repo repository.ContactsRepository, opts ...ContactsServiceOption) *ContactsService {
	s := &ContactsService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current instant at millisecond precision so every
// store round-trips it unchanged.
func (s *ContactsService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// ListContacts returns contacts matching the filter. No match yields an empty slice.
func (s *ContactsService) ListContacts(ctx context.Context, filter dto.ContactFilter) ([]entity.Contact, error) {
	contacts, err := s.repo.List(ctx, query.Build(filter))
	s.record("list", err)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []entity.Contact{}
	}
	return contacts, nil
}

// GetContact fetches a single contact.
func (s *ContactsService) GetContact(ctx context.Context, id string) (*entity.Contact, error) {
	contact, err := s.repo.FindByID(ctx, id)
	s.record("get", err)
	return contact, err
}

// CreateContact validates the candidate, stamps both timestamps with the same
// instant and stores it. Any identifier on the candidate is ignored.
func (s *ContactsService) CreateContact(ctx context.Context, candidate entity.Contact) (*entity.Contact, error) {
	contact := candidate
	contact.ID = ""
	contact.Tags = append([]string{}, candidate.Tags...)
	if candidate.SocialMedia != nil {
		social := *candidate.SocialMedia
		contact.SocialMedia = &social
	}
	if contact.Status == "" {
		contact.Status = entity.DefaultStatus
	}
	contact.LastContactDate = truncateTime(candidate.LastContactDate)
	if s.normalizer != nil {
		s.normalizer.Normalize(&contact)
	}

	if err := ValidateContact(&contact); err != nil {
		s.record("create", err)
		return nil, err
	}

	now := s.timestamp()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	stored, err := s.repo.Insert(ctx, &contact)
	s.record("create", err)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateContact merges patch onto the stored contact. The merged record must
// still validate; UpdatedAt is refreshed even when nothing else changes.
func (s *ContactsService) UpdateContact(ctx context.Context, id string, patch dto.ContactPatch) (*entity.Contact, error) {
	updated, err := s.repo.Update(ctx, id, func(existing entity.Contact) (entity.Contact, error) {
		merged := patch.Apply(existing)
		merged.LastContactDate = truncateTime(merged.LastContactDate)
		if s.normalizer != nil {
			s.normalizer.Normalize(&merged)
		}
		if err := ValidateContact(&merged); err != nil {
			return entity.Contact{}, err
		}

		merged.ID = existing.ID
		merged.CreatedAt = existing.CreatedAt
		merged.UpdatedAt = s.timestamp()
		if merged.UpdatedAt.Before(merged.CreatedAt) {
			merged.UpdatedAt = merged.CreatedAt
		}
		return merged, nil
	})
	s.record("update", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContact permanently removes a contact.
func (s *ContactsService) DeleteContact(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.record("delete", err)
	return err
}

func truncateTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	truncated := ts.UTC().Truncate(time.Millisecond)
	return &truncated
}

func (s *ContactsService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	var validationErr ValidationError
	switch {
	case err == nil:
		s.metrics.RecordOperation(operation, metrics.OutcomeOK)
	case errors.Is(err, repository.ErrContactNotFound):
		s.metrics.RecordOperation(operation, metrics.OutcomeNotFound)
	case errors.As(err, &validationErr):
		s.metrics.RecordOperation(operation, metrics.OutcomeInvalid)
	default:
		s.metrics.RecordOperation(operation, metrics.OutcomeError)
	}
}
