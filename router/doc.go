// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the scanvote API.

# Route Registration

NewRouter returns a chi router with the full middleware stack:

	ready := atomic.NewBool(true)
	r := router.NewRouter(svc, cfg, log, ready)

Middleware runs in order: RequestID, RealIP, Recoverer, CORS, access log,
session resolution.

# Endpoints

Health:

	GET /livez   - process is up
	GET /readyz  - ready flag set and storage reachable

Profiles:

	POST /profiles    - Sign up, returns a session token
	GET  /profiles/me - Current profile (Bearer)

Polls:

	POST  /polls                     - Create poll (Bearer)
	GET   /polls                     - Public polls, newest first
	GET   /polls/{id}                - Poll view (?code=, ?fingerprint=)
	PATCH /polls/{id}                - Change visibility or expiry (creator)
	POST  /polls/{id}/vote           - Cast a vote
	GET   /polls/{id}/tokens         - Active access codes (creator)
	POST  /polls/{id}/tokens/rotate  - Replace access codes (creator)

Access codes:

	DELETE /tokens/{code} - Turn off a code (creator)
	GET    /qr/{code}     - Resolve a scanned code
*/
package router
