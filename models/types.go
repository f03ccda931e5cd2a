package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Poll visibility constants
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
)

// Access token intents
const (
	IntentView = "view"
	IntentVote = "vote"
)

// Request types

type CreatePollRequest struct {
	Title              string        `json:"title"`
	Description        *string       `json:"description,omitempty"`
	Options            []OptionInput `json:"options"`
	IsPublic           bool          `json:"is_public"`
	AllowMultipleVotes bool          `json:"allow_multiple_votes"`
	ExpiresAt          *time.Time    `json:"expires_at,omitempty"`
}

// OptionInput accepts either a bare label ("Pizza") or an object
// ({"label": "Pizza", "description": "..."}).
type OptionInput struct {
	Label       string  `json:"label"`
	Description *string `json:"description,omitempty"`
}

func (o *OptionInput) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*o = OptionInput{Label: label}
		return nil
	}

	type plain OptionInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.New("option must be a string or an object with a label")
	}
	*o = OptionInput(p)
	return nil
}

type CastVoteRequest struct {
	OptionID    string `json:"option_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Only visibility and expiry may change after creation.
type UpdatePollRequest struct {
	IsPublic    *bool      `json:"is_public,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
}

type CreateProfileRequest struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

// Response types

// QRCodes holds the opaque access codes; a printed QR code encodes
// <base url>/qr/<code>.
type QRCodes struct {
	View string `json:"view"`
	Vote string `json:"vote"`
}

type CreatePollResponse struct {
	Success bool         `json:"success"`
	Poll    Poll         `json:"poll"`
	Options []PollOption `json:"options"`
	QRCodes QRCodes      `json:"qr_codes"`
}

type CastVoteResponse struct {
	Success bool      `json:"success"`
	Poll    *PollView `json:"poll,omitempty"`
}

type RotateTokensResponse struct {
	QRCodes QRCodes `json:"qr_codes"`
}

type ScanPoll struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type ScanResponse struct {
	Success bool     `json:"success"`
	Intent  string   `json:"intent"`
	PollURL string   `json:"poll_url"`
	QRCode  string   `json:"qr_code"` // PNG data URL of PollURL
	Poll    ScanPoll `json:"poll"`
	Expires string   `json:"expires,omitempty"`
}

type CreateProfileResponse struct {
	Profile      Profile `json:"profile"`
	SessionToken string  `json:"session_token"`
}

// Domain types

type Poll struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	CreatorID          string     `json:"created_by"`
	Visibility         string     `json:"visibility"`
	AllowMultipleVotes bool       `json:"allow_multiple_votes"`
	ExpiresAt          *time.Time `json:"expires_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsPublic reports whether the poll shows up in listings and needs no authorization.
func (p Poll) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}

// ExpiredAt reports whether the poll is closed at t. A poll is closed at its expiry instant.
func (p Poll) ExpiredAt(t time.Time) bool {
	return p.ExpiresAt != nil && !t.Before(*p.ExpiresAt)
}

type PollOption struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	Label       string    `json:"label"`
	Description *string   `json:"description"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

type Vote struct {
	ID               string    `json:"id"`
	PollID           string    `json:"poll_id"`
	OptionID         string    `json:"option_id"`
	VoterKey         string    `json:"-"` // Never expose in JSON
	TrustTier        string    `json:"trust_tier"`
	VoterID          *string   `json:"-"`
	VoterIP          *string   `json:"-"`
	VoterFingerprint *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

type AccessToken struct {
	ID            string     `json:"id"`
	PollID        string     `json:"poll_id"`
	Code          string     `json:"code"`
	Intent        string     `json:"intent"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Read model

type OptionTally struct {
	PollOption
	Votes int `json:"votes"`
}

type PollView struct {
	Poll
	Options       []OptionTally `json:"options"`
	TotalVotes    int           `json:"total_votes"`
	IsExpired     bool          `json:"is_expired"`
	HasVoted      bool          `json:"has_voted"`
	VotedOptionID *string       `json:"voted_option_id,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message,omitempty"`
	Poll    *PollView `json:"poll,omitempty"` // set for already_voted so clients can show the prior choice
}
