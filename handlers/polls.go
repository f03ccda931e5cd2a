// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/polls"
	"github.com/danielhkuo/scanvote/tokens"
)

type PollHandler struct {
	svc *polls.Service
	cfg cliparse.Config
}

func NewPollHandler(svc *polls.Service, cfg cliparse.Config) *PollHandler {
	return &PollHandler{svc: svc, cfg: cfg}
}

func qrCodes(pair tokens.Pair) models.QRCodes {
	return models.QRCodes{View: pair.View.Code, Vote: pair.Vote.Code}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created, err := h.svc.CreatePoll(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Success: true,
		Poll:    created.Poll,
		Options: created.Options,
		QRCodes: qrCodes(tokens.Pair{View: created.ViewToken, Vote: created.VoteToken}),
	})
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListPolls(r.Context(), viewerFrom(r, ""))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, views)
}

// GetPoll handles GET /polls/{id}?fingerprint=&code=
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	view, err := h.svc.GetPollByID(r.Context(), pollID, viewerFrom(r, ""))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// UpdatePoll handles PATCH /polls/{id}
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.UpdatePoll(r.Context(), pollID, middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, poll)
}

// Vote handles POST /polls/{id}/vote
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	view, err := h.svc.Vote(r.Context(), polls.VoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		Viewer:   viewerFrom(r, req.Fingerprint),
	})
	if err != nil {
		writeError(w, err, &view)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Success: true,
		Poll:    &view,
	})
}

// RotateTokens handles POST /polls/{id}/tokens/rotate
func (h *PollHandler) RotateTokens(w http.ResponseWriter, r *http.Request) {
	pair, err := h.svc.RotateTokens(r.Context(), r.PathValue("id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RotateTokensResponse{QRCodes: qrCodes(pair)})
}

// ListTokens handles GET /polls/{id}/tokens
func (h *PollHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.PollTokens(r.Context(), r.PathValue("id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, active)
}

// DeactivateToken handles DELETE /tokens/{code}
func (h *PollHandler) DeactivateToken(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeactivateToken(r.Context(), r.PathValue("code"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
