// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity derives a canonical voter key from whatever request signals
are available.

# Precedence

	session user id  → "user:<id>"   (authenticated)
	network address  → "ip:<addr>"   (network)
	fingerprint      → "fp:<fp>"     (fingerprint)
	nothing          → "anon:<rand>" (anonymous, fresh every call)

Only the strongest signal is used; the others are kept on the Identity for
audit. Anonymous identities never collide with a stored vote, so anonymous
voters are never deduplicated.

	id := identity.Resolve(userID, clientIP, fingerprint)
	key := id.Key()
*/
package identity
