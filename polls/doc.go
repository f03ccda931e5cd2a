// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package polls implements poll creation, voting and the poll read model.

# Service

Service is the only entry point the transport layer uses:

	svc := polls.NewService(st)
	created, err := svc.CreatePoll(ctx, creatorID, req)
	view, err := svc.Vote(ctx, polls.VoteInput{PollID: id, OptionID: opt, Viewer: viewer})

Every method runs its reads and writes in a store transaction and holds no
state between calls.

# Voting

A vote is checked in this order, stopping at the first failure:

 1. the poll exists and has not expired (poll_closed)
 2. the option belongs to the poll (invalid_option)
 3. the voter key has not voted yet, unless the poll allows repeats (already_voted)

The last check and the insert are one statement guarded by a unique
constraint on (poll_id, dedup_key). Concurrent votes from one voter key
produce exactly one row.

The voter key comes from package identity: session user, then network
address, then fingerprint. Voters with none of these get a fresh anonymous
key per request and are never deduplicated.

# Visibility

Public polls are listed and readable by anyone. Unlisted polls are readable
by their creator and by anyone presenting an active access code for the
poll. Everyone else gets not_found, the same as for a missing poll.

# Errors

Methods return *Error with a Kind and a stable Reason:

	switch polls.KindOf(err) {
	case polls.KindInvalid:   // 400
	case polls.KindNotFound:  // 404
	case polls.KindConflict:  // 409
	case polls.KindTransient: // 503, retry
	}
*/
package polls
