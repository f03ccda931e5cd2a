// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/scanvote/auth"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/store"
)

// ErrInvalid is returned for unknown, inactive and malformed codes alike.
var ErrInvalid = errors.New("invalid access code")

// Repository persists access tokens. *store.Queries implements it.
type Repository interface {
	InsertToken(ctx context.Context, t models.AccessToken) error
	TokenByCode(ctx context.Context, code string) (models.AccessToken, error)
	DeactivateToken(ctx context.Context, code string, at time.Time) (bool, error)
	DeactivatePollTokens(ctx context.Context, pollID string, at time.Time) (int64, error)
}

// Pair is the view and vote code minted together for a poll.
type Pair struct {
	View models.AccessToken
	Vote models.AccessToken
}

// Codec mints and resolves access codes.
type Codec struct {
	Now func() time.Time
}

func (c Codec) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// Encode returns a fresh code for intent. The code is random and carries
// nothing about the poll it will open.
func (c Codec) Encode(intent string) (string, error) {
	if intent != models.IntentView && intent != models.IntentVote {
		return "", fmt.Errorf("unknown intent %q", intent)
	}
	return auth.GenerateCode()
}

// Mint encodes a code and stores it as an active token for the poll.
func (c Codec) Mint(ctx context.Context, repo Repository, pollID, intent string) (models.AccessToken, error) {
	code, err := c.Encode(intent)
	if err != nil {
		return models.AccessToken{}, err
	}

	t := models.AccessToken{
		ID:        uuid.NewString(),
		PollID:    pollID,
		Code:      code,
		Intent:    intent,
		IsActive:  true,
		CreatedAt: c.now(),
	}
	if err := repo.InsertToken(ctx, t); err != nil {
		return models.AccessToken{}, err
	}
	return t, nil
}

// MintPair mints one view and one vote code.
func (c Codec) MintPair(ctx context.Context, repo Repository, pollID string) (Pair, error) {
	view, err := c.Mint(ctx, repo, pollID, models.IntentView)
	if err != nil {
		return Pair{}, err
	}
	vote, err := c.Mint(ctx, repo, pollID, models.IntentVote)
	if err != nil {
		return Pair{}, err
	}
	return Pair{View: view, Vote: vote}, nil
}

// Decode resolves a code to its token. Malformed codes never reach the
// repository.
func (c Codec) Decode(ctx context.Context, repo Repository, code string) (models.AccessToken, error) {
	if err := auth.ValidateCodeFormat(code); err != nil {
		return models.AccessToken{}, ErrInvalid
	}

	t, err := repo.TokenByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return models.AccessToken{}, ErrInvalid
	}
	if err != nil {
		return models.AccessToken{}, err
	}
	if !t.IsActive {
		return models.AccessToken{}, ErrInvalid
	}
	return t, nil
}

// Rotate deactivates every active code of the poll and mints a new pair.
// Run it inside one transaction so old codes stop resolving the moment the
// new ones exist.
func (c Codec) Rotate(ctx context.Context, repo Repository, pollID string) (Pair, error) {
	if _, err := repo.DeactivatePollTokens(ctx, pollID, c.now()); err != nil {
		return Pair{}, err
	}
	return c.MintPair(ctx, repo, pollID)
}

// Deactivate turns off a single code. Deactivating an unknown or already
// inactive code returns ErrInvalid.
func (c Codec) Deactivate(ctx context.Context, repo Repository, code string) error {
	if err := auth.ValidateCodeFormat(code); err != nil {
		return ErrInvalid
	}
	changed, err := repo.DeactivateToken(ctx, code, c.now())
	if err != nil {
		return err
	}
	if !changed {
		return ErrInvalid
	}
	return nil
}
