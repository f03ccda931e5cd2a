// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, options, is_public, allow_multiple_votes, expires_at
  - OptionInput: a bare label string or {label, description}
  - CastVoteRequest: option_id, fingerprint
  - UpdatePollRequest: is_public, expires_at, clear_expiry
  - CreateProfileRequest: email, full_name

# Response Types

Types for JSON responses:

  - CreatePollResponse: poll, options, qr_codes {view, vote}
  - CastVoteResponse: success, poll
  - RotateTokensResponse: qr_codes
  - ScanResponse: intent, poll_url, qr_code, poll {id, title, description}
  - CreateProfileResponse: profile, session_token
  - ErrorResponse: error (stable reason code), message, poll

# Domain Types

Persisted records:

  - Poll: metadata, visibility, repeat-vote flag, optional expiry
  - PollOption: label and display order
  - Vote: one cast vote with its voter key and audit fields
  - AccessToken: revocable code routing a scan to (poll, intent)
  - Profile: an account that can create polls

# Read Model

PollView combines a Poll with OptionTally counts and, when the request
carried a usable identity, the viewer's own vote (has_voted, voted_option_id).

# Constants

Visibility:

	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"

Intents:

	IntentView = "view"
	IntentVote = "vote"
*/
package models
