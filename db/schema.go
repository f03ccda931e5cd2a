// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported database types. The values double as database/sql driver names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect string) error {
	ddl, err := Schema(dialect)
	if err != nil {
		return err
	}

	_, err = db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema returns the DDL for the given database type.
func Schema(dialect string) (string, error) {
	switch dialect {
	case Postgres:
		return strings.ReplaceAll(schema, "{{timestamp}}", "TIMESTAMPTZ"), nil
	case SQLite:
		return strings.ReplaceAll(schema, "{{timestamp}}", "TIMESTAMP"), nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dialect)
	}
}

// Timestamps are written by the application in UTC; neither dialect fills them in.
const schema = `
-- Profiles
CREATE TABLE IF NOT EXISTS profile (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT,
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}} NOT NULL
);

-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    created_by TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'unlisted')),
    allow_multiple_votes BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at {{timestamp}},
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_created_by ON poll(created_by);
CREATE INDEX IF NOT EXISTS idx_poll_visibility_created ON poll(visibility, created_at);

-- Options
CREATE TABLE IF NOT EXISTS poll_option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    description TEXT,
    order_index INTEGER NOT NULL,
    created_at {{timestamp}} NOT NULL,
    UNIQUE (poll_id, order_index),
    UNIQUE (poll_id, id)
);

-- Votes
-- dedup_key is the voter key for single-vote polls and NULL otherwise.
-- NULLs never collide, so the unique constraint only binds single-vote polls.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL,
    voter_key TEXT NOT NULL,
    dedup_key TEXT,
    trust_tier TEXT NOT NULL,
    voter_id TEXT,
    voter_ip TEXT,
    voter_fingerprint TEXT,
    created_at {{timestamp}} NOT NULL,
    FOREIGN KEY (poll_id, option_id) REFERENCES poll_option(poll_id, id) ON DELETE CASCADE,
    UNIQUE (poll_id, dedup_key)
);

CREATE INDEX IF NOT EXISTS idx_vote_option_id ON vote(poll_id, option_id);
CREATE INDEX IF NOT EXISTS idx_vote_voter_key ON vote(poll_id, voter_key, created_at);

-- Access tokens (scannable codes)
CREATE TABLE IF NOT EXISTS access_token (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    code TEXT NOT NULL UNIQUE,
    intent TEXT NOT NULL CHECK (intent IN ('view', 'vote')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at {{timestamp}} NOT NULL,
    deactivated_at {{timestamp}}
);

CREATE INDEX IF NOT EXISTS idx_access_token_poll_id ON access_token(poll_id, is_active);
`
