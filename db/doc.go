// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite) and retries
the first ping with exponential backoff:

	conn, err := db.Open(ctx, db.SQLite, "scanvote.db")

SQLite connections get foreign_keys, busy_timeout, immediate transactions and
a sortable time format. The pool is capped at one connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, db.Postgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - profile: accounts that create polls
  - poll: metadata, visibility, repeat-vote flag, expiry
  - poll_option: labels with a per-poll display order
  - vote: append-only ledger, one row per accepted vote
  - access_token: scannable codes with intent and active flag

# Relationships

	poll 1──* poll_option
	poll 1──* vote
	poll_option 1──* vote
	poll 1──* access_token

All foreign keys use ON DELETE CASCADE. The vote foreign key is composite
(poll_id, option_id), so a vote can never reference another poll's option.

# Deduplication

UNIQUE (poll_id, dedup_key) on vote enforces one vote per voter key. The
application writes dedup_key = voter_key for single-vote polls and NULL for
polls allowing repeats.
*/
package db
