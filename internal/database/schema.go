package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var contactsSchema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
        id UUID PRIMARY KEY,
        doc JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS contacts_created_at_idx ON contacts (created_at, id)`,
	`CREATE INDEX IF NOT EXISTS contacts_tags_idx ON contacts USING GIN ((doc->'tags'))`,
	`CREATE INDEX IF NOT EXISTS contacts_status_idx ON contacts ((doc->>'status'))`,
}

// EnsureContactsSchema creates the contacts table and its indexes when missing.
func EnsureContactsSchema(ctx context.Context, db Execer) error {
	for _, stmt := range contactsSchema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure contacts schema: %w", err)
		}
	}
	return nil
}
