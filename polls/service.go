// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/scanvote/identity"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/store"
	"github.com/danielhkuo/scanvote/tokens"
)

const (
	MinOptions     = 2
	MaxTitleLength = 200
)

// Viewer carries the ambient signals of a request.
type Viewer struct {
	UserID         string // verified session user, if any
	NetworkAddress string
	Fingerprint    string
	Code           string // access code presented with the request, if any
}

// Identity resolves the viewer's voter identity.
func (v Viewer) Identity() identity.Identity {
	return identity.Resolve(v.UserID, v.NetworkAddress, v.Fingerprint)
}

type VoteInput struct {
	PollID   string
	OptionID string
	Viewer   Viewer
}

// Created is a new poll with its options and both access tokens.
type Created struct {
	Poll      models.Poll
	Options   []models.PollOption
	ViewToken models.AccessToken
	VoteToken models.AccessToken
}

// Service is the entry point for every poll operation. It holds no state
// between calls; the store is the only shared state.
type Service struct {
	store *store.Store
	codec tokens.Codec
	now   func() time.Time
}

func NewService(st *store.Store) *Service {
	return NewServiceWithClock(st, time.Now)
}

// NewServiceWithClock is NewService with an injected time source.
func NewServiceWithClock(st *store.Store, now func() time.Time) *Service {
	clock := func() time.Time { return now().UTC().Truncate(time.Microsecond) }
	return &Service{
		store: st,
		codec: tokens.Codec{Now: clock},
		now:   clock,
	}
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreatePoll validates the request and stores the poll, its options and a
// view and vote token in one transaction.
func (s *Service) CreatePoll(ctx context.Context, creatorID string, req models.CreatePollRequest) (Created, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return Created{}, newError(ReasonUnauthenticated)
	}
	if len(req.Options) < MinOptions {
		return Created{}, newError(ReasonTooFewOptions)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Created{}, newError(ReasonMissingTitle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Created{}, newError(ReasonTitleTooLong)
	}

	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return Created{}, newError(ReasonExpiryInPast)
	}

	visibility := models.VisibilityUnlisted
	if req.IsPublic {
		visibility = models.VisibilityPublic
	}

	poll := models.Poll{
		ID:                 uuid.NewString(),
		Title:              title,
		Description:        trimmedOrNil(req.Description),
		CreatorID:          creatorID,
		Visibility:         visibility,
		AllowMultipleVotes: req.AllowMultipleVotes,
		ExpiresAt:          utcOrNil(req.ExpiresAt),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	options := make([]models.PollOption, 0, len(req.Options))
	for i, in := range req.Options {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return Created{}, newError(ReasonBlankOption)
		}
		options = append(options, models.PollOption{
			ID:          uuid.NewString(),
			PollID:      poll.ID,
			Label:       label,
			Description: trimmedOrNil(in.Description),
			OrderIndex:  i,
			CreatedAt:   now,
		})
	}

	var pair tokens.Pair
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		if err := q.InsertPoll(ctx, poll); err != nil {
			return err
		}
		for _, o := range options {
			if err := q.InsertOption(ctx, o); err != nil {
				return err
			}
		}
		var err error
		pair, err = s.codec.MintPair(ctx, q, poll.ID)
		return err
	})
	if err != nil {
		return Created{}, s.storeFailure("create poll", err)
	}

	slog.Info("poll created",
		"poll_id", poll.ID,
		"options", len(options),
		"visibility", poll.Visibility,
		"allow_multiple_votes", poll.AllowMultipleVotes,
	)

	return Created{Poll: poll, Options: options, ViewToken: pair.View, VoteToken: pair.Vote}, nil
}

// Vote casts a vote and returns the poll as the voter now sees it. On
// already_voted the view showing the earlier choice is returned together
// with the error.
func (s *Service) Vote(ctx context.Context, in VoteInput) (models.PollView, error) {
	voter := in.Viewer.Identity()
	now := s.now()

	var outcome Outcome
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		ok, err := s.canVote(ctx, q, in.PollID, in.Viewer)
		if err != nil {
			return err
		}
		if !ok {
			outcome = rejected(ReasonNotFound)
			return nil
		}
		outcome, err = castVote(ctx, q, now, in.PollID, in.OptionID, voter)
		return err
	})
	if err != nil {
		return models.PollView{}, s.storeFailure("cast vote", err)
	}

	if !outcome.Accepted && outcome.Reason != ReasonAlreadyVoted {
		slog.Info("vote rejected", "poll_id", in.PollID, "reason", outcome.Reason)
		return models.PollView{}, newError(outcome.Reason)
	}

	var view models.PollView
	err = s.store.ReadTx(ctx, func(q *store.Queries) error {
		var err error
		view, err = loadView(ctx, q, now, in.PollID, &voter)
		return err
	})
	if err != nil {
		return models.PollView{}, s.storeFailure("load poll after vote", err)
	}

	if !outcome.Accepted {
		slog.Info("vote rejected", "poll_id", in.PollID, "reason", outcome.Reason, "tier", voter.Tier())
		return view, newError(ReasonAlreadyVoted)
	}

	slog.Info("vote recorded", "poll_id", in.PollID, "vote_id", outcome.Vote.ID, "tier", voter.Tier())
	return view, nil
}

// GetPollByID returns the poll view. Unlisted polls are visible to their
// creator and to holders of an active code for the poll; everyone else gets
// not_found.
func (s *Service) GetPollByID(ctx context.Context, pollID string, viewer Viewer) (models.PollView, error) {
	voter := viewer.Identity()
	now := s.now()

	var view models.PollView
	err := s.store.ReadTx(ctx, func(q *store.Queries) error {
		poll, err := q.GetPoll(ctx, pollID)
		if err != nil {
			return err
		}

		if !poll.IsPublic() {
			allowed, err := s.authorized(ctx, q, poll, viewer)
			if err != nil {
				return err
			}
			if !allowed {
				return newError(ReasonNotFound)
			}
		}

		view, err = buildView(ctx, q, now, poll, &voter)
		return err
	})
	if err != nil {
		return models.PollView{}, s.storeFailure("get poll", err)
	}
	return view, nil
}

// canVote hides missing polls and unlisted polls the viewer may not see
// behind the same not_found answer.
func (s *Service) canVote(ctx context.Context, q *store.Queries, pollID string, viewer Viewer) (bool, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if poll.IsPublic() {
		return true, nil
	}
	return s.authorized(ctx, q, poll, viewer)
}

func (s *Service) authorized(ctx context.Context, q *store.Queries, poll models.Poll, viewer Viewer) (bool, error) {
	if viewer.UserID != "" && viewer.UserID == poll.CreatorID {
		return true, nil
	}
	if viewer.Code == "" {
		return false, nil
	}

	token, err := s.codec.Decode(ctx, q, viewer.Code)
	if errors.Is(err, tokens.ErrInvalid) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return token.PollID == poll.ID, nil
}

// ResolveByToken maps a scanned code to its poll view and intent. A valid
// code also opens unlisted polls.
func (s *Service) ResolveByToken(ctx context.Context, code string, viewer Viewer) (models.PollView, string, error) {
	voter := viewer.Identity()
	now := s.now()

	var view models.PollView
	var intent string
	err := s.store.ReadTx(ctx, func(q *store.Queries) error {
		token, err := s.codec.Decode(ctx, q, code)
		if errors.Is(err, tokens.ErrInvalid) {
			return newError(ReasonInvalidToken)
		}
		if err != nil {
			return err
		}

		intent = token.Intent
		view, err = loadView(ctx, q, now, token.PollID, &voter)
		return err
	})
	if err != nil {
		return models.PollView{}, "", s.storeFailure("resolve code", err)
	}
	return view, intent, nil
}

// ListPolls returns every public poll, newest first.
func (s *Service) ListPolls(ctx context.Context, viewer Viewer) ([]models.PollView, error) {
	voter := viewer.Identity()
	now := s.now()

	var views []models.PollView
	err := s.store.ReadTx(ctx, func(q *store.Queries) error {
		polls, err := q.ListPublicPolls(ctx)
		if err != nil {
			return err
		}

		views = make([]models.PollView, 0, len(polls))
		for _, p := range polls {
			view, err := buildView(ctx, q, now, p, &voter)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, s.storeFailure("list polls", err)
	}
	return views, nil
}

// UpdatePoll changes visibility or expiry. Only the creator may update;
// anyone else gets not_found.
func (s *Service) UpdatePoll(ctx context.Context, pollID, callerID string, req models.UpdatePollRequest) (models.Poll, error) {
	if callerID == "" {
		return models.Poll{}, newError(ReasonUnauthenticated)
	}
	if req.IsPublic == nil && req.ExpiresAt == nil && !req.ClearExpiry {
		return models.Poll{}, newError(ReasonNoChanges)
	}

	now := s.now()
	if req.ExpiresAt != nil && !req.ClearExpiry && req.ExpiresAt.Before(now) {
		return models.Poll{}, newError(ReasonExpiryInPast)
	}

	var poll models.Poll
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		var err error
		poll, err = s.ownedPoll(ctx, q, pollID, callerID)
		if err != nil {
			return err
		}

		if req.IsPublic != nil {
			poll.Visibility = models.VisibilityUnlisted
			if *req.IsPublic {
				poll.Visibility = models.VisibilityPublic
			}
		}
		// clear_expiry wins over expires_at
		if req.ExpiresAt != nil {
			poll.ExpiresAt = utcOrNil(req.ExpiresAt)
		}
		if req.ClearExpiry {
			poll.ExpiresAt = nil
		}
		poll.UpdatedAt = now

		return q.UpdatePoll(ctx, poll)
	})
	if err != nil {
		return models.Poll{}, s.storeFailure("update poll", err)
	}

	slog.Info("poll updated", "poll_id", poll.ID, "visibility", poll.Visibility, "expires_at", poll.ExpiresAt)
	return poll, nil
}

// RotateTokens replaces the poll's codes with a fresh pair. The old codes
// stop resolving when the transaction commits.
func (s *Service) RotateTokens(ctx context.Context, pollID, callerID string) (tokens.Pair, error) {
	if callerID == "" {
		return tokens.Pair{}, newError(ReasonUnauthenticated)
	}

	var pair tokens.Pair
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		if _, err := s.ownedPoll(ctx, q, pollID, callerID); err != nil {
			return err
		}
		var err error
		pair, err = s.codec.Rotate(ctx, q, pollID)
		return err
	})
	if err != nil {
		return tokens.Pair{}, s.storeFailure("rotate codes", err)
	}

	slog.Info("access codes rotated", "poll_id", pollID)
	return pair, nil
}

// PollTokens lists the poll's active codes for its creator.
func (s *Service) PollTokens(ctx context.Context, pollID, callerID string) ([]models.AccessToken, error) {
	if callerID == "" {
		return nil, newError(ReasonUnauthenticated)
	}

	var active []models.AccessToken
	err := s.store.ReadTx(ctx, func(q *store.Queries) error {
		if _, err := s.ownedPoll(ctx, q, pollID, callerID); err != nil {
			return err
		}
		var err error
		active, err = q.ActiveTokens(ctx, pollID)
		return err
	})
	if err != nil {
		return nil, s.storeFailure("list codes", err)
	}
	return active, nil
}

// DeactivateToken turns off one code of a poll the caller created.
func (s *Service) DeactivateToken(ctx context.Context, code, callerID string) error {
	if callerID == "" {
		return newError(ReasonUnauthenticated)
	}

	err := s.store.InTx(ctx, func(q *store.Queries) error {
		token, err := s.codec.Decode(ctx, q, code)
		if errors.Is(err, tokens.ErrInvalid) {
			return newError(ReasonInvalidToken)
		}
		if err != nil {
			return err
		}

		if _, err := s.ownedPoll(ctx, q, token.PollID, callerID); err != nil {
			if ReasonOf(err) == ReasonNotFound {
				return newError(ReasonInvalidToken)
			}
			return err
		}

		err = s.codec.Deactivate(ctx, q, code)
		if errors.Is(err, tokens.ErrInvalid) {
			return newError(ReasonInvalidToken)
		}
		return err
	})
	if err != nil {
		return s.storeFailure("deactivate code", err)
	}

	slog.Info("access code deactivated", "code_prefix", code[:min(4, len(code))])
	return nil
}

// ownedPoll loads a poll and masks it as not_found unless callerID created it.
func (s *Service) ownedPoll(ctx context.Context, q *store.Queries, pollID, callerID string) (models.Poll, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if poll.CreatorID != callerID {
		return models.Poll{}, newError(ReasonNotFound)
	}
	return poll, nil
}

// CreateProfile registers a new account.
func (s *Service) CreateProfile(ctx context.Context, req models.CreateProfileRequest) (models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.Profile{}, newError(ReasonInvalidEmail)
	}

	now := s.now()
	profile := models.Profile{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  trimmedOrNil(req.FullName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.InTx(ctx, func(q *store.Queries) error {
		err := q.InsertProfile(ctx, profile)
		if errors.Is(err, store.ErrUniqueViolation) {
			return newError(ReasonEmailTaken)
		}
		return err
	})
	if err != nil {
		return models.Profile{}, s.storeFailure("create profile", err)
	}

	slog.Info("profile created", "profile_id", profile.ID)
	return profile, nil
}

// GetProfile returns the caller's profile.
func (s *Service) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, newError(ReasonUnauthenticated)
	}

	var profile models.Profile
	err := s.store.ReadTx(ctx, func(q *store.Queries) error {
		var err error
		profile, err = q.GetProfile(ctx, userID)
		return err
	})
	if err != nil {
		return models.Profile{}, s.storeFailure("get profile", err)
	}
	return profile, nil
}

// storeFailure converts err to an *Error and logs the ones that are not
// expected business outcomes.
func (s *Service) storeFailure(op string, err error) error {
	err = fromStore(err)
	if KindOf(err) == KindTransient {
		slog.Error("storage failure", "op", op, "error", err)
	}
	return err
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
