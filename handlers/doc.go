// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the scanvote API.

# Handler Types

Each handler is a struct holding the poll service and config:

  - PollHandler: poll create/read/update, voting, access code management
  - ScanHandler: resolves scanned codes to a poll link and QR image
  - ProfileHandler: sign-up and the current profile

	pollHandler := handlers.NewPollHandler(svc, cfg)

# Identity Signals

Every request contributes up to three signals to the voter identity:

  - the session user, set by middleware.Session
  - the client address, from RemoteAddr after chi's RealIP
  - a browser fingerprint, from the request body, the fingerprint query
    parameter, or the X-Fingerprint header (in that order)

An access code given as ?code= opens unlisted polls.

# Error Responses

Service errors become {error, message} bodies where error is a stable
reason code:

	400  invalid input (too_few_options, invalid_option, ...)
	401  unauthenticated
	404  not_found, invalid_token
	409  poll_closed, already_voted, email_taken
	503  storage_unavailable, with Retry-After

An already_voted response also carries the poll as the voter sees it.
*/
package handlers
