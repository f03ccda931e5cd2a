// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/scanvote/identity"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/store"
)

// buildView assembles the read model for one poll. Run it inside a read
// transaction so counts and the viewer's vote come from the same snapshot.
func buildView(ctx context.Context, q *store.Queries, now time.Time, poll models.Poll, viewer *identity.Identity) (models.PollView, error) {
	options, err := q.ListOptions(ctx, poll.ID)
	if err != nil {
		return models.PollView{}, err
	}

	counts, err := q.CountVotes(ctx, poll.ID)
	if err != nil {
		return models.PollView{}, err
	}

	view := models.PollView{
		Poll:      poll,
		Options:   make([]models.OptionTally, 0, len(options)),
		IsExpired: poll.ExpiredAt(now),
	}
	for _, o := range options {
		n := counts[o.ID]
		view.Options = append(view.Options, models.OptionTally{PollOption: o, Votes: n})
		view.TotalVotes += n
	}

	// Anonymous keys are fresh per request and can never match a stored vote
	if viewer != nil && !viewer.IsAnonymous() {
		vote, err := q.LatestVote(ctx, poll.ID, viewer.Key())
		switch {
		case err == nil:
			view.HasVoted = true
			view.VotedOptionID = &vote.OptionID
		case !errors.Is(err, store.ErrNotFound):
			return models.PollView{}, err
		}
	}

	return view, nil
}

// loadView fetches the poll and builds its view.
func loadView(ctx context.Context, q *store.Queries, now time.Time, pollID string, viewer *identity.Identity) (models.PollView, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if err != nil {
		return models.PollView{}, err
	}
	return buildView(ctx, q, now, poll, viewer)
}
