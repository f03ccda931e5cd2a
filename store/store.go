// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/scanvote/db"
)

// DefaultTimeout bounds every transaction when the caller does not set one.
const DefaultTimeout = 5 * time.Second

// Store runs transactions against the poll database. All reads and writes go
// through a Queries value bound to a single transaction.
type Store struct {
	db      *sql.DB
	dialect string
	timeout time.Duration
}

func New(conn *sql.DB, dialect string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{db: conn, dialect: dialect, timeout: timeout}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database answers within the store timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return classify(s.db.PingContext(ctx))
}

// InTx runs fn in a read-write transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	return s.run(ctx, nil, fn)
}

// ReadTx runs fn in a read-only transaction that sees one consistent
// snapshot. On PostgreSQL this is REPEATABLE READ; SQLite transactions are
// serializable already.
func (s *Store) ReadTx(ctx context.Context, fn func(q *Queries) error) error {
	var opts *sql.TxOptions
	if s.dialect == db.Postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return s.run(ctx, opts, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(q *Queries) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}

	if err := fn(&Queries{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("rollback failed", "error", rbErr)
		}
		// A deadline hit inside fn may surface as a plain driver error
		if ctx.Err() != nil && !isClassified(err) {
			return fmt.Errorf("%w: %w", ErrTransient, ctx.Err())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}
