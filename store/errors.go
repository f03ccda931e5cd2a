// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures that are safe to retry: timeouts, lost
	// connections, serialization conflicts and lock contention.
	ErrTransient = errors.New("transient storage failure")
	// ErrUniqueViolation is returned when an insert hits a unique constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// classify maps driver errors onto the package sentinels. Unrecognized
// errors are returned as is.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isClassified(err):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isTransient(err):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

func isClassified(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient) || errors.Is(err, ErrUniqueViolation)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", // connection exception
			"40", // transaction rollback: serialization failure, deadlock
			"53", // insufficient resources
			"57": // operator intervention: query canceled, admin shutdown
			return true
		}
		return false
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
