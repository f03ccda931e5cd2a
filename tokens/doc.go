// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tokens mints and resolves the access codes behind scannable links.

Every poll gets two codes at creation, one with intent "view" and one with
intent "vote". A code is 128 random bits in base62 and is stored with its
poll id, intent and an active flag:

	pair, err := codec.MintPair(ctx, q, pollID)
	token, err := codec.Decode(ctx, q, code)

Decode returns ErrInvalid for unknown and inactive codes alike, so callers
cannot tell whether a code ever existed. Rotate deactivates the old codes and
mints a new pair; there is no grace window.

All operations take a Repository so they run inside the caller's transaction.
*/
package tokens
