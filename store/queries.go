// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/scanvote/models"
)

// Queries is the set of statements available inside one transaction.
type Queries struct {
	tx *sql.Tx
}

// Profiles

func (q *Queries) InsertProfile(ctx context.Context, p models.Profile) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO profile (id, email, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Email, p.FullName, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", classify(err))
	}
	return nil
}

func (q *Queries) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	var fullName sql.NullString
	err := q.tx.QueryRowContext(ctx, `
		SELECT id, email, full_name, created_at, updated_at
		FROM profile
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &fullName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Profile{}, classify(err)
	}
	p.FullName = nullString(fullName)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Polls

const pollColumns = `id, title, description, created_by, visibility, allow_multiple_votes, expires_at, created_at, updated_at`

func (q *Queries) InsertPoll(ctx context.Context, p models.Poll) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO poll (`+pollColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Title, p.Description, p.CreatorID, p.Visibility, p.AllowMultipleVotes,
		p.ExpiresAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", classify(err))
	}
	return nil
}

func (q *Queries) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	row := q.tx.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	p, err := scanPoll(row)
	if err != nil {
		return models.Poll{}, classify(err)
	}
	return p, nil
}

// ListPublicPolls returns public polls, newest first.
func (q *Queries) ListPublicPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := q.tx.QueryContext(ctx, `
		SELECT `+pollColumns+`
		FROM poll
		WHERE visibility = $1
		ORDER BY created_at DESC, id
	`, models.VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", classify(err))
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, classify(err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return polls, nil
}

// UpdatePoll writes the mutable poll fields: visibility and expiry.
func (q *Queries) UpdatePoll(ctx context.Context, p models.Poll) error {
	res, err := q.tx.ExecContext(ctx, `
		UPDATE poll
		SET visibility = $1, expires_at = $2, updated_at = $3
		WHERE id = $4
	`, p.Visibility, p.ExpiresAt, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var description sql.NullString
	var expiresAt sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &description, &p.CreatorID, &p.Visibility,
		&p.AllowMultipleVotes, &expiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Poll{}, err
	}
	p.Description = nullString(description)
	p.ExpiresAt = nullTime(expiresAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Options

func (q *Queries) InsertOption(ctx context.Context, o models.PollOption) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO poll_option (id, poll_id, label, description, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.PollID, o.Label, o.Description, o.OrderIndex, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert option: %w", classify(err))
	}
	return nil
}

// ListOptions returns a poll's options in display order.
func (q *Queries) ListOptions(ctx context.Context, pollID string) ([]models.PollOption, error) {
	rows, err := q.tx.QueryContext(ctx, `
		SELECT id, poll_id, label, description, order_index, created_at
		FROM poll_option
		WHERE poll_id = $1
		ORDER BY order_index
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list options: %w", classify(err))
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var o models.PollOption
		var description sql.NullString
		if err := rows.Scan(&o.ID, &o.PollID, &o.Label, &description, &o.OrderIndex, &o.CreatedAt); err != nil {
			return nil, classify(err)
		}
		o.Description = nullString(description)
		o.CreatedAt = o.CreatedAt.UTC()
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return options, nil
}

// OptionInPoll reports whether optionID is one of pollID's options.
func (q *Queries) OptionInPoll(ctx context.Context, pollID, optionID string) (bool, error) {
	var n int
	err := q.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM poll_option WHERE id = $1 AND poll_id = $2
	`, optionID, pollID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check option: %w", classify(err))
	}
	return n > 0, nil
}

// Votes

// InsertVote appends a vote. When dedup is set the row carries the voter key
// in dedup_key and the insert is skipped if that key already voted on the
// poll. It reports whether a row was written.
func (q *Queries) InsertVote(ctx context.Context, v models.Vote, dedup bool) (bool, error) {
	var dedupKey *string
	if dedup {
		dedupKey = &v.VoterKey
	}

	res, err := q.tx.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_id, voter_key, dedup_key, trust_tier,
			voter_id, voter_ip, voter_fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (poll_id, dedup_key) DO NOTHING
	`, v.ID, v.PollID, v.OptionID, v.VoterKey, dedupKey, v.TrustTier,
		v.VoterID, v.VoterIP, v.VoterFingerprint, v.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert vote: %w", classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", classify(err))
	}
	return n == 1, nil
}

// CountVotes returns vote counts keyed by option id. Options without votes
// are absent from the map.
func (q *Queries) CountVotes(ctx context.Context, pollID string) (map[string]int, error) {
	rows, err := q.tx.QueryContext(ctx, `
		SELECT option_id, COUNT(*)
		FROM vote
		WHERE poll_id = $1
		GROUP BY option_id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", classify(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var optionID string
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, classify(err)
		}
		counts[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return counts, nil
}

// LatestVote returns the most recent vote cast by voterKey on the poll.
func (q *Queries) LatestVote(ctx context.Context, pollID, voterKey string) (models.Vote, error) {
	var v models.Vote
	var voterID, voterIP, fingerprint sql.NullString
	err := q.tx.QueryRowContext(ctx, `
		SELECT id, poll_id, option_id, voter_key, trust_tier, voter_id, voter_ip, voter_fingerprint, created_at
		FROM vote
		WHERE poll_id = $1 AND voter_key = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, pollID, voterKey).Scan(&v.ID, &v.PollID, &v.OptionID, &v.VoterKey, &v.TrustTier,
		&voterID, &voterIP, &fingerprint, &v.CreatedAt)
	if err != nil {
		return models.Vote{}, classify(err)
	}
	v.VoterID = nullString(voterID)
	v.VoterIP = nullString(voterIP)
	v.VoterFingerprint = nullString(fingerprint)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, nil
}

// Access tokens

func (q *Queries) InsertToken(ctx context.Context, t models.AccessToken) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO access_token (id, poll_id, code, intent, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.PollID, t.Code, t.Intent, t.IsActive, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert access token: %w", classify(err))
	}
	return nil
}

func (q *Queries) TokenByCode(ctx context.Context, code string) (models.AccessToken, error) {
	var t models.AccessToken
	var deactivatedAt sql.NullTime
	err := q.tx.QueryRowContext(ctx, `
		SELECT id, poll_id, code, intent, is_active, created_at, deactivated_at
		FROM access_token
		WHERE code = $1
	`, code).Scan(&t.ID, &t.PollID, &t.Code, &t.Intent, &t.IsActive, &t.CreatedAt, &deactivatedAt)
	if err != nil {
		return models.AccessToken{}, classify(err)
	}
	t.DeactivatedAt = nullTime(deactivatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// DeactivateToken marks one active code inactive. It reports whether the
// code was active.
func (q *Queries) DeactivateToken(ctx context.Context, code string, at time.Time) (bool, error) {
	res, err := q.tx.ExecContext(ctx, `
		UPDATE access_token
		SET is_active = FALSE, deactivated_at = $1
		WHERE code = $2 AND is_active = TRUE
	`, at, code)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate access token: %w", classify(err))
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeactivatePollTokens marks every active code of a poll inactive and
// returns how many were changed.
func (q *Queries) DeactivatePollTokens(ctx context.Context, pollID string, at time.Time) (int64, error) {
	res, err := q.tx.ExecContext(ctx, `
		UPDATE access_token
		SET is_active = FALSE, deactivated_at = $1
		WHERE poll_id = $2 AND is_active = TRUE
	`, at, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate access tokens: %w", classify(err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ActiveTokens returns the poll's active codes, oldest first.
func (q *Queries) ActiveTokens(ctx context.Context, pollID string) ([]models.AccessToken, error) {
	rows, err := q.tx.QueryContext(ctx, `
		SELECT id, poll_id, code, intent, is_active, created_at
		FROM access_token
		WHERE poll_id = $1 AND is_active = TRUE
		ORDER BY created_at, intent
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access tokens: %w", classify(err))
	}
	defer rows.Close()

	tokens := []models.AccessToken{}
	for rows.Next() {
		var t models.AccessToken
		if err := rows.Scan(&t.ID, &t.PollID, &t.Code, &t.Intent, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, classify(err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return tokens, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
