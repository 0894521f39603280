package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	event_date DATE NOT NULL,
	event_time TIME,
	location TEXT,
	image_url TEXT,
	category TEXT,
	price NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (price >= 0)
);`

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`

// Migrate creates the catalog tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for name, stmt := range map[string]string{
		"events": createEventsTableSQL,
		"users":  createUsersTableSQL,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s table: %w", name, err)
		}
	}

	return nil
}
