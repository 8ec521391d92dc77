package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/query"
)

// PGXContactsRepository stores contacts as jsonb documents in PostgreSQL.
type PGXContactsRepository struct {
	pool pgxPool
}

// NewPGXContactsRepository wires a pgx backed repository.
func NewPGXContactsRepository(pool *pgxpool.Pool) *PGXContactsRepository {
	return &PGXContactsRepository{pool: pool}
}

var (
	_ pgxPool            = (*pgxpool.Pool)(nil)
	_ ContactsRepository = (*PGXContactsRepository)(nil)
)

const (
	insertContactSQL = `
        INSERT INTO contacts (id, doc, created_at, updated_at)
        VALUES ($1, $2::jsonb, $3, $4)
    `
	selectContactSQL          = `SELECT id, doc FROM contacts WHERE id = $1`
	selectContactForUpdateSQL = `SELECT id, doc FROM contacts WHERE id = $1 FOR UPDATE`
	updateContactSQL          = `UPDATE contacts SET doc = $2::jsonb, updated_at = $3 WHERE id = $1`
	deleteContactSQL          = `DELETE FROM contacts WHERE id = $1`
)

// List returns contacts matching the predicate in insertion order.
func (r *PGXContactsRepository) List(ctx context.Context, predicate query.Predicate) ([]entity.Contact, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT id, doc FROM contacts")
	if !predicate.IsAll() {
		sb.WriteString(" WHERE ")
		sb.WriteString(renderSQL(predicate, &args))
	}
	sb.WriteString(" ORDER BY created_at ASC, id ASC")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeError("list contacts", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// FindByID fetches a contact by identifier.
func (r *PGXContactsRepository) FindByID(ctx context.Context, id string) (*entity.Contact, error) {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrContactNotFound
	}

	contact, err := scanContact(r.pool.QueryRow(ctx, selectContactSQL, contactID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storeError("query contact by id", err)
	}
	return contact, nil
}

// Insert stores a new contact document under a random uuid.
func (r *PGXContactsRepository) Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error) {
	if contact == nil {
		return nil, fmt.Errorf("contact payload is nil")
	}

	stored := cloneContact(*contact)
	stored.ID = ""
	doc, err := encodeDocument(stored)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	if _, err := r.pool.Exec(ctx, insertContactSQL, id, doc, stored.CreatedAt, stored.UpdatedAt); err != nil {
		return nil, storeError("insert contact", err)
	}

	stored.ID = id.String()
	return &stored, nil
}

// Update locks the contact row, applies mutate and writes the result back in
// a single transaction.
func (r *PGXContactsRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*entity.Contact, error) {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrContactNotFound
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeError("start update tx", err)
	}
	defer tx.Rollback(ctx)

	existing, err := scanContact(tx.QueryRow(ctx, selectContactForUpdateSQL, contactID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, storeError("lock contact", err)
	}

	updated, err := mutate(*existing)
	if err != nil {
		return nil, err
	}
	updated.ID = ""
	doc, err := encodeDocument(updated)
	if err != nil {
		return nil, err
	}

	cmd, err := tx.Exec(ctx, updateContactSQL, contactID, doc, updated.UpdatedAt)
	if err != nil {
		return nil, storeError("update contact", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrContactNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storeError("commit update tx", err)
	}

	updated.ID = existing.ID
	return &updated, nil
}

// Delete removes a contact by identifier.
func (r *PGXContactsRepository) Delete(ctx context.Context, id string) error {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return ErrContactNotFound
	}

	cmd, err := r.pool.Exec(ctx, deleteContactSQL, contactID)
	if err != nil {
		return storeError("delete contact", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// renderSQL translates a predicate into a WHERE fragment over the doc column,
// appending bind values to args.
func renderSQL(p query.Predicate, args *[]any) string {
	switch p.Op {
	case query.OpAnd, query.OpOr:
		if len(p.Children) == 0 {
			if p.Op == query.OpAnd {
				return "TRUE"
			}
			return "FALSE"
		}
		sep := " AND "
		if p.Op == query.OpOr {
			sep = " OR "
		}
		parts := make([]string, 0, len(p.Children))
		for _, child := range p.Children {
			parts = append(parts, renderSQL(child, args))
		}
		return "(" + strings.Join(parts, sep) + ")"
	case query.OpContains:
		key, ok := documentKey(p.Field)
		if !ok {
			return "FALSE"
		}
		*args = append(*args, "%"+query.EscapeLike(p.Value)+"%")
		return fmt.Sprintf(`COALESCE(doc->>'%s', '') ILIKE $%d ESCAPE '\'`, key, len(*args))
	case query.OpAnyOf:
		key, ok := documentKey(p.Field)
		if !ok || len(p.Values) == 0 {
			return "FALSE"
		}
		*args = append(*args, append([]string{}, p.Values...))
		return fmt.Sprintf("doc->'%s' ?| $%d", key, len(*args))
	case query.OpEquals:
		key, ok := documentKey(p.Field)
		if !ok {
			return "FALSE"
		}
		*args = append(*args, p.Value)
		return fmt.Sprintf("doc->>'%s' = $%d", key, len(*args))
	default:
		return "FALSE"
	}
}

// documentKey restricts rendered JSON keys to the known contact fields.
func documentKey(field query.Field) (string, bool) {
	switch field {
	case query.FieldFirstName, query.FieldLastName, query.FieldEmail, query.FieldCompany, query.FieldTags, query.FieldStatus:
		return string(field), true
	default:
		return "", false
	}
}

func encodeDocument(contact entity.Contact) (string, error) {
	if contact.Tags == nil {
		contact.Tags = []string{}
	}
	raw, err := json.Marshal(contact)
	if err != nil {
		return "", fmt.Errorf("marshal contact document: %w", err)
	}
	return string(raw), nil
}

func decodeDocument(id uuid.UUID, doc []byte) (*entity.Contact, error) {
	var contact entity.Contact
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &contact); err != nil {
			return nil, fmt.Errorf("unmarshal contact document: %w", err)
		}
	}
	contact.ID = id.String()
	if contact.Tags == nil {
		contact.Tags = []string{}
	}
	return &contact, nil
}

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var (
		id  uuid.UUID
		doc []byte
	)
	if err := row.Scan(&id, &doc); err != nil {
		return nil, err
	}
	return decodeDocument(id, doc)
}

func scanContacts(rows pgx.Rows) ([]entity.Contact, error) {
	contacts := make([]entity.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, storeError("scan contact", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate contacts", err)
	}
	return contacts, nil
}
