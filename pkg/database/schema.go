package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Statement is one named schema step
type Statement struct {
	Name string
	SQL  string
}

// SchemaUp creates the tables used by the API. Every step is idempotent.
var SchemaUp = []Statement{
	{
		Name: "polls",
		SQL: `CREATE TABLE IF NOT EXISTS polls (
			id UUID PRIMARY KEY,
			slug VARCHAR(32) UNIQUE NOT NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			organization VARCHAR(200) NOT NULL DEFAULT '',
			created_by VARCHAR(255) NOT NULL,
			questions JSONB NOT NULL,
			responses JSONB NOT NULL DEFAULT '[]'::jsonb,
			response_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "idx_polls_created_by",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_polls_created_by ON polls(created_by, created_at DESC)`,
	},
	{
		Name: "profiles",
		SQL: `CREATE TABLE IF NOT EXISTS profiles (
			user_id VARCHAR(255) PRIMARY KEY,
			slug VARCHAR(32) UNIQUE NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			is_organization BOOLEAN NOT NULL DEFAULT false,
			accepting_messages BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "messages",
		SQL: `CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			recipient_id VARCHAR(255) NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "idx_messages_recipient",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id, created_at DESC)`,
	},
}

// SchemaDown drops everything SchemaUp creates
var SchemaDown = []Statement{
	{Name: "messages", SQL: `DROP TABLE IF EXISTS messages CASCADE`},
	{Name: "profiles", SQL: `DROP TABLE IF EXISTS profiles CASCADE`},
	{Name: "polls", SQL: `DROP TABLE IF EXISTS polls CASCADE`},
}

// Apply runs statements in order and calls done after each one
func Apply(ctx context.Context, db Execer, statements []Statement, done func(Statement)) error {
	for _, st := range statements {
		if _, err := db.Exec(ctx, st.SQL); err != nil {
			return fmt.Errorf("failed to apply %s: %w", st.Name, err)
		}
		if done != nil {
			done(st)
		}
	}
	return nil
}
