// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the scanvote API server.

scanvote runs polls that anyone can reach through a link or a printed QR
code. Each distinct voter counts at most once per poll unless the organizer
allows repeats. A voter is identified by their account when signed in,
otherwise by network address, otherwise by browser fingerprint.

# Starting the Server

	SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret dev

SQLite (the default) needs no setup; the database file is created on start.

# Configuration

Required settings:

  - SESSION_SECRET (-session-secret): HMAC secret for bearer sessions
  - DATABASE_URL (-d): required for postgres

Optional settings are listed in package cliparse, and may also come from a
.env file or a YAML file given with -c.

# Architecture

  - handlers: HTTP request handlers (polls, scans, profiles)
  - router: chi routes and middleware stack, /livez and /readyz
  - middleware: access logs, CORS, sessions, JSON helpers
  - polls: the poll service, vote ledger and tally views
  - identity: voter identity resolution
  - tokens: access code minting, decoding and rotation
  - store: transactions and queries over database/sql
  - db: connection setup and schema for sqlite and postgres
  - qr: QR code rendering
  - auth: session signing and code generation
  - models: request, response and domain types
  - cliparse: configuration parsing

On SIGINT or SIGTERM the server fails readiness, then drains in-flight
requests before exiting.
*/
package main
