// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/scanvote/identity"
	"github.com/danielhkuo/scanvote/store"
	"github.com/danielhkuo/scanvote/testutil"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *testutil.Clock) {
	t.Helper()
	st := testutil.SetupTestStore(t)
	clock := testutil.NewClock(testStart)
	return NewServiceWithClock(st, clock.Now), st, clock
}

func countVotes(t *testing.T, st *store.Store, pollID string) map[string]int {
	t.Helper()
	var counts map[string]int
	err := st.ReadTx(context.Background(), func(q *store.Queries) error {
		var err error
		counts, err = q.CountVotes(context.Background(), pollID)
		return err
	})
	require.NoError(t, err)
	return counts
}

// TestConcurrentVotesSameVoter fires many votes from one voter key at once.
// Exactly one must be recorded; every other call sees already_voted.
func TestConcurrentVotesSameVoter(t *testing.T) {
	svc, st, _ := newTestService(t)
	poll, opts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart})

	for _, viewer := range []Viewer{
		{NetworkAddress: "10.0.0.1"},
		{UserID: "user-42", NetworkAddress: "10.0.0.2"},
		{Fingerprint: "fp-abc"},
	} {
		t.Run(viewer.Identity().Kind().String(), func(t *testing.T) {
			const numGoroutines = 20

			var wg sync.WaitGroup
			var successCount, alreadyVotedCount, otherCount atomic.Int32

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := svc.Vote(context.Background(), VoteInput{
						PollID:   poll.ID,
						OptionID: opts[i%len(opts)],
						Viewer:   viewer,
					})
					switch {
					case err == nil:
						successCount.Add(1)
					case ReasonOf(err) == ReasonAlreadyVoted:
						alreadyVotedCount.Add(1)
					default:
						otherCount.Add(1)
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, int32(1), successCount.Load(), "exactly one vote must succeed")
			assert.Equal(t, int32(numGoroutines-1), alreadyVotedCount.Load())
			assert.Equal(t, int32(0), otherCount.Load())
		})
	}

	counts := countVotes(t, st, poll.ID)
	assert.Equal(t, 3, counts[opts[0]]+counts[opts[1]], "one vote per voter key")
}

func TestConcurrentVotesDistinctVoters(t *testing.T) {
	svc, st, _ := newTestService(t)
	poll, opts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart})

	const numGoroutines = 15
	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Vote(context.Background(), VoteInput{
				PollID:   poll.ID,
				OptionID: opts[0],
				Viewer:   Viewer{NetworkAddress: fmt.Sprintf("10.1.0.%d", i)},
			})
			if err == nil {
				successCount.Add(1)
			} else {
				t.Errorf("vote %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(numGoroutines), successCount.Load())
	assert.Equal(t, numGoroutines, countVotes(t, st, poll.ID)[opts[0]])
}

func TestCastVoteOutcomes(t *testing.T) {
	_, st, _ := newTestService(t)
	ctx := context.Background()

	past := testStart.Add(-time.Minute)
	open, openOpts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart.Add(-time.Hour)})
	closed, closedOpts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart.Add(-time.Hour), ExpiresAt: &past})
	atExpiry := testStart
	boundary, boundaryOpts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart.Add(-time.Hour), ExpiresAt: &atExpiry})
	_, otherOpts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart.Add(-time.Hour)})

	voter := identity.Resolve("", "192.0.2.1", "")

	tests := []struct {
		name       string
		pollID     string
		optionID   string
		wantOK     bool
		wantReason Reason
	}{
		{"accepted", open.ID, openOpts[0], true, ""},
		{"second vote", open.ID, openOpts[1], false, ReasonAlreadyVoted},
		{"expired", closed.ID, closedOpts[0], false, ReasonPollClosed},
		{"closed at expiry instant", boundary.ID, boundaryOpts[0], false, ReasonPollClosed},
		{"unknown poll", "no-such-poll", openOpts[0], false, ReasonPollClosed},
		{"option from another poll", open.ID, otherOpts[0], false, ReasonInvalidOption},
		{"missing option", open.ID, "", false, ReasonInvalidOption},
		{"unknown option", open.ID, "no-such-option", false, ReasonInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Outcome
			err := st.InTx(ctx, func(q *store.Queries) error {
				var err error
				out, err = castVote(ctx, q, testStart, tt.pollID, tt.optionID, voter)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, out.Accepted)
			assert.Equal(t, tt.wantReason, out.Reason)
			if tt.wantOK {
				assert.Equal(t, "ip:192.0.2.1", out.Vote.VoterKey)
				assert.Equal(t, string(identity.TierNetwork), out.Vote.TrustTier)
				require.NotNil(t, out.Vote.VoterIP)
				assert.Equal(t, "192.0.2.1", *out.Vote.VoterIP)
				assert.Nil(t, out.Vote.VoterID)
			}
		})
	}

	// Rejections never leave a row behind
	assert.Empty(t, countVotes(t, st, closed.ID))
	assert.Empty(t, countVotes(t, st, boundary.ID))
	assert.Equal(t, map[string]int{openOpts[0]: 1}, countVotes(t, st, open.ID))
}

func TestMultiVotePoll(t *testing.T) {
	svc, st, clock := newTestService(t)
	ctx := context.Background()
	poll, opts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart, AllowMultipleVotes: true})
	viewer := Viewer{NetworkAddress: "198.51.100.7"}

	for _, opt := range []string{opts[0], opts[0], opts[1]} {
		clock.Advance(time.Second)
		_, err := svc.Vote(ctx, VoteInput{PollID: poll.ID, OptionID: opt, Viewer: viewer})
		require.NoError(t, err)
	}

	view, err := svc.GetPollByID(ctx, poll.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalVotes)
	assert.Equal(t, 2, view.Options[0].Votes)
	assert.Equal(t, 1, view.Options[1].Votes)
	assert.True(t, view.HasVoted)
	require.NotNil(t, view.VotedOptionID)
	assert.Equal(t, opts[1], *view.VotedOptionID, "most recent vote wins")
}

func TestAnonymousVotersAreNotDeduplicated(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	poll, opts := testutil.CreateTestPoll(t, st, testutil.TestPoll{CreatedAt: testStart})

	for i := 0; i < 3; i++ {
		view, err := svc.Vote(ctx, VoteInput{PollID: poll.ID, OptionID: opts[0], Viewer: Viewer{}})
		require.NoError(t, err)
		assert.False(t, view.HasVoted, "anonymous viewers never see a personal vote")
		assert.Equal(t, i+1, view.TotalVotes)
	}
}
