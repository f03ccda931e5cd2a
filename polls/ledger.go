// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/scanvote/identity"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/store"
)

// Outcome is the result of casting a vote. Expected rejections are reported
// here, not as errors.
type Outcome struct {
	Accepted bool
	Reason   Reason // set when not accepted
	Vote     models.Vote
}

func rejected(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// castVote records one vote. It must run inside a single transaction; the
// (poll_id, dedup_key) unique constraint makes the check and the insert one
// atomic step.
func castVote(ctx context.Context, q *store.Queries, now time.Time, pollID, optionID string, voter identity.Identity) (Outcome, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return rejected(ReasonPollClosed), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if poll.ExpiredAt(now) {
		return rejected(ReasonPollClosed), nil
	}

	if optionID == "" {
		return rejected(ReasonInvalidOption), nil
	}
	ok, err := q.OptionInPoll(ctx, pollID, optionID)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return rejected(ReasonInvalidOption), nil
	}

	vote := models.Vote{
		ID:               uuid.NewString(),
		PollID:           pollID,
		OptionID:         optionID,
		VoterKey:         voter.Key(),
		TrustTier:        string(voter.Tier()),
		VoterID:          optional(voter.SessionUserID),
		VoterIP:          optional(voter.NetworkAddress),
		VoterFingerprint: optional(voter.Fingerprint),
		CreatedAt:        now,
	}

	inserted, err := q.InsertVote(ctx, vote, !poll.AllowMultipleVotes)
	if errors.Is(err, store.ErrUniqueViolation) {
		return rejected(ReasonAlreadyVoted), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if !inserted {
		return rejected(ReasonAlreadyVoted), nil
	}

	return Outcome{Accepted: true, Vote: vote}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
