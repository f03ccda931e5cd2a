// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/polls"
	"github.com/danielhkuo/scanvote/qr"
)

// ScanHandler resolves scanned codes to the page they lead to.
type ScanHandler struct {
	svc      *polls.Service
	cfg      cliparse.Config
	renderer qr.Renderer
}

func NewScanHandler(svc *polls.Service, cfg cliparse.Config, renderer qr.Renderer) *ScanHandler {
	return &ScanHandler{svc: svc, cfg: cfg, renderer: renderer}
}

// PollURL is the page a code leads to. The code rides along so unlisted
// polls stay reachable.
func PollURL(baseURL, pollID, intent, code string) string {
	path := baseURL + "/polls/" + url.PathEscape(pollID)
	if intent == models.IntentVote {
		path += "/vote"
	}
	return path + "?" + url.Values{"code": {code}}.Encode()
}

// Resolve handles GET /qr/{code}
func (h *ScanHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	view, intent, err := h.svc.ResolveByToken(r.Context(), code, viewerFrom(r, ""))
	if err != nil {
		writeError(w, err, nil)
		return
	}

	pollURL := PollURL(h.cfg.BaseURL, view.ID, intent, code)
	image, err := h.renderer.DataURL(pollURL)
	if err != nil {
		slog.Error("failed to render QR code", "poll_id", view.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	resp := models.ScanResponse{
		Success: true,
		Intent:  intent,
		PollURL: pollURL,
		QRCode:  image,
		Poll: models.ScanPoll{
			ID:          view.ID,
			Title:       view.Title,
			Description: view.Description,
		},
	}
	if view.ExpiresAt != nil {
		resp.Expires = humanize.Time(*view.ExpiresAt)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
