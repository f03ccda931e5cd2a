// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/testutil"
)

type failingRenderer struct{}

func (failingRenderer) DataURL(string) (string, error) {
	return "", errors.New("render failed")
}

func scanRequest(code string) *http.Request {
	req := httptest.NewRequest("GET", "/qr/"+code, nil)
	req.SetPathValue("code", code)
	return req
}

func TestResolveScan(t *testing.T) {
	env := setupEnv(t)

	expires := time.Now().UTC().Add(72 * time.Hour)
	desc := "Friday team lunch"
	created := env.createPoll(t, "owner", models.CreatePollRequest{
		Title:       "Lunch",
		Description: &desc,
		ExpiresAt:   &expires,
	})
	pollID := created.Poll.ID

	tests := []struct {
		name           string
		code           string
		expectedIntent string
		expectedPath   string
	}{
		{"view code", created.QRCodes.View, models.IntentView, "/polls/" + pollID + "?code="},
		{"vote code", created.QRCodes.Vote, models.IntentVote, "/polls/" + pollID + "/vote?code="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := env.code(t, tt.code)
			w := httptest.NewRecorder()

			env.scan.Resolve(w, scanRequest(code))

			testutil.AssertStatus(t, w, http.StatusOK)
			var resp models.ScanResponse
			testutil.AssertJSON(t, w, &resp)

			if !resp.Success || resp.Intent != tt.expectedIntent {
				t.Errorf("Expected intent '%s', got %+v", tt.expectedIntent, resp)
			}
			if want := env.cfg.BaseURL + tt.expectedPath + code; resp.PollURL != want {
				t.Errorf("Expected poll_url '%s', got '%s'", want, resp.PollURL)
			}
			if !strings.HasPrefix(resp.QRCode, "data:image/png;base64,") {
				t.Errorf("Expected PNG data URL, got '%.40s'", resp.QRCode)
			}
			if resp.Poll.ID != pollID || resp.Poll.Title != "Lunch" {
				t.Errorf("Unexpected poll summary %+v", resp.Poll)
			}
			if resp.Poll.Description == nil || *resp.Poll.Description != desc {
				t.Errorf("Expected description '%s'", desc)
			}
			if !strings.Contains(resp.Expires, "from now") {
				t.Errorf("Expected relative expiry, got '%s'", resp.Expires)
			}
		})
	}
}

func TestResolveScanInvalid(t *testing.T) {
	env := setupEnv(t)
	created := env.createPoll(t, "owner", models.CreatePollRequest{IsPublic: true})
	oldVote := env.code(t, created.QRCodes.Vote)

	if _, err := env.svc.RotateTokens(t.Context(), created.Poll.ID, "owner"); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}

	tests := []struct {
		name string
		code string
	}{
		{"rotated code", oldVote},
		{"malformed code", "not-a-code"},
		{"unknown code", "AAAAAAAAAAAAAAAAAAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.scan.Resolve(w, scanRequest(tt.code))

			testutil.AssertStatus(t, w, http.StatusNotFound)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != "invalid_token" {
				t.Errorf("Expected invalid_token, got '%s'", resp.Error)
			}
		})
	}
}

func TestResolveScanRenderFailure(t *testing.T) {
	env := setupEnv(t)
	created := env.createPoll(t, "owner", models.CreatePollRequest{IsPublic: true})

	handler := NewScanHandler(env.svc, env.cfg, failingRenderer{})
	w := httptest.NewRecorder()
	handler.Resolve(w, scanRequest(env.code(t, created.QRCodes.View)))

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}

func TestPollURL(t *testing.T) {
	tests := []struct {
		intent   string
		expected string
	}{
		{models.IntentView, "https://v.example/polls/p1?code=abc"},
		{models.IntentVote, "https://v.example/polls/p1/vote?code=abc"},
	}
	for _, tt := range tests {
		if got := PollURL("https://v.example", "p1", tt.intent, "abc"); got != tt.expected {
			t.Errorf("%s: expected '%s', got '%s'", tt.intent, tt.expected, got)
		}
	}
}
