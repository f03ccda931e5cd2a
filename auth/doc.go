// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session tokens and access-code generation.

# Session Tokens

Profiles authenticate with an HMAC-signed bearer token:

	token := auth.SignSession(profileID, secret)
	userID, err := auth.VerifySession(token, secret)

Tokens are deterministic per (user id, secret) and need no storage. Rotating
the secret invalidates every outstanding session.

BearerSessions implements SessionProvider over the Authorization header:

	Authorization: Bearer <user id>.<signature>

A missing or bad token yields no user; handlers then treat the request as
unauthenticated rather than rejecting it.

# Access Codes

GenerateCode returns a 22 character nanoid over base62 (0-9, a-z, A-Z). Codes are
not derived from poll ids, so they cannot be enumerated:

	code, err := auth.GenerateCode()

ValidateCodeFormat is a cheap pre-check before a store lookup.
*/
package auth
