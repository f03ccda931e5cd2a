// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/scanvote/store"
)

// Kind groups outcomes by how a caller should react.
type Kind int

const (
	KindUnknown   Kind = iota
	KindInvalid        // fix the request
	KindNotFound       // absent, or hidden from this caller
	KindConflict       // business rule, not retryable
	KindTransient      // storage trouble, retry with backoff
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Reason is a stable, enumerable code clients can switch on.
type Reason string

const (
	ReasonTooFewOptions   Reason = "too_few_options"
	ReasonMissingTitle    Reason = "missing_title"
	ReasonTitleTooLong    Reason = "title_too_long"
	ReasonBlankOption     Reason = "blank_option"
	ReasonExpiryInPast    Reason = "expiry_in_past"
	ReasonInvalidEmail    Reason = "invalid_email"
	ReasonNoChanges       Reason = "no_changes"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonInvalidOption   Reason = "invalid_option"

	ReasonNotFound     Reason = "not_found"
	ReasonInvalidToken Reason = "invalid_token"

	ReasonPollClosed   Reason = "poll_closed"
	ReasonAlreadyVoted Reason = "already_voted"
	ReasonEmailTaken   Reason = "email_taken"

	ReasonStorageUnavailable Reason = "storage_unavailable"
)

var reasonKinds = map[Reason]Kind{
	ReasonTooFewOptions:      KindInvalid,
	ReasonMissingTitle:       KindInvalid,
	ReasonTitleTooLong:       KindInvalid,
	ReasonBlankOption:        KindInvalid,
	ReasonExpiryInPast:       KindInvalid,
	ReasonInvalidEmail:       KindInvalid,
	ReasonNoChanges:          KindInvalid,
	ReasonUnauthenticated:    KindInvalid,
	ReasonInvalidOption:      KindInvalid,
	ReasonNotFound:           KindNotFound,
	ReasonInvalidToken:       KindNotFound,
	ReasonPollClosed:         KindConflict,
	ReasonAlreadyVoted:       KindConflict,
	ReasonEmailTaken:         KindConflict,
	ReasonStorageUnavailable: KindTransient,
}

// Error is the typed failure returned by Service methods.
type Error struct {
	Kind   Kind
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason Reason) *Error {
	return &Error{Kind: reasonKinds[reason], Reason: reason}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf returns the Reason of err, or "" if err is not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// fromStore turns a store failure into an *Error. Domain errors pass
// through; any other storage failure is treated as transient.
func fromStore(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: KindNotFound, Reason: ReasonNotFound, Err: err}
	}
	return &Error{Kind: KindTransient, Reason: ReasonStorageUnavailable, Err: err}
}
