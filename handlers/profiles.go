// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/scanvote/auth"
	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/polls"
)

type ProfileHandler struct {
	svc *polls.Service
	cfg cliparse.Config
}

func NewProfileHandler(svc *polls.Service, cfg cliparse.Config) *ProfileHandler {
	return &ProfileHandler{svc: svc, cfg: cfg}
}

// Create handles POST /profiles
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	profile, err := h.svc.CreateProfile(r.Context(), req)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateProfileResponse{
		Profile:      profile,
		SessionToken: auth.SignSession(profile.ID, h.cfg.SessionSecret),
	})
}

// Me handles GET /profiles/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}
