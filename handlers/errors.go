// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/polls"
)

// RetryAfterSeconds is advertised on 503 responses.
const RetryAfterSeconds = 1

var messages = map[polls.Reason]string{
	polls.ReasonTooFewOptions:      "A poll needs at least two options",
	polls.ReasonMissingTitle:       "title is required",
	polls.ReasonTitleTooLong:       "title is too long",
	polls.ReasonBlankOption:        "Options cannot be blank",
	polls.ReasonExpiryInPast:       "expires_at must be in the future",
	polls.ReasonInvalidEmail:       "A valid email is required",
	polls.ReasonNoChanges:          "Nothing to update",
	polls.ReasonUnauthenticated:    "Sign in to do that",
	polls.ReasonInvalidOption:      "That option is not part of this poll",
	polls.ReasonNotFound:           "Poll not found",
	polls.ReasonInvalidToken:       "This code is invalid or has been turned off",
	polls.ReasonPollClosed:         "This poll is closed",
	polls.ReasonAlreadyVoted:       "You have already voted in this poll",
	polls.ReasonEmailTaken:         "That email is already registered",
	polls.ReasonStorageUnavailable: "Service temporarily unavailable, please retry",
}

func statusFor(err error) int {
	if polls.ReasonOf(err) == polls.ReasonUnauthenticated {
		return http.StatusUnauthorized
	}
	switch polls.KindOf(err) {
	case polls.KindInvalid:
		return http.StatusBadRequest
	case polls.KindNotFound:
		return http.StatusNotFound
	case polls.KindConflict:
		return http.StatusConflict
	case polls.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. view is attached for already_voted so
// the client can show the earlier choice.
func writeError(w http.ResponseWriter, err error, view *models.PollView) {
	status := statusFor(err)
	reason := polls.ReasonOf(err)

	if status == http.StatusInternalServerError {
		slog.Error("unexpected service error", "error", err)
		middleware.ErrorResponse(w, status, "Internal error")
		return
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}

	resp := models.ErrorResponse{Error: string(reason), Message: messages[reason]}
	if reason == polls.ReasonAlreadyVoted {
		resp.Poll = view
	}
	middleware.JSONResponse(w, status, resp)
}
