// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/scanvote/auth"
	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/polls"
	"github.com/danielhkuo/scanvote/qr"
	"github.com/danielhkuo/scanvote/store"
	"github.com/danielhkuo/scanvote/testutil"
)

type testEnv struct {
	cfg      cliparse.Config
	store    *store.Store
	svc      *polls.Service
	polls    *PollHandler
	scan     *ScanHandler
	profiles *ProfileHandler
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	st := testutil.SetupTestStore(t)
	svc := polls.NewService(st)

	return &testEnv{
		cfg:      cfg,
		store:    st,
		svc:      svc,
		polls:    NewPollHandler(svc, cfg),
		scan:     NewScanHandler(svc, cfg, qr.PNG{Size: 64}),
		profiles: NewProfileHandler(svc, cfg),
	}
}

// asUser attaches a verified session user, as the Session middleware would
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// createPoll creates a poll through the handler and returns the response
func (e *testEnv) createPoll(t *testing.T, userID string, req models.CreatePollRequest) models.CreatePollResponse {
	t.Helper()

	if req.Title == "" {
		req.Title = "Lunch"
	}
	if len(req.Options) == 0 {
		req.Options = []models.OptionInput{{Label: "Pizza"}, {Label: "Tacos"}}
	}

	w := httptest.NewRecorder()
	e.polls.CreatePoll(w, asUser(testutil.MakeRequest("POST", "/polls", req, nil), userID))
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create poll: %d - %s", w.Code, w.Body.String())
	}

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

// code checks that an access code from a response is well formed
func (e *testEnv) code(t *testing.T, code string) string {
	t.Helper()
	if err := auth.ValidateCodeFormat(code); err != nil {
		t.Fatalf("Unexpected access code %q: %v", code, err)
	}
	return code
}

// vote posts a vote from remoteAddr with an optional fingerprint
func (e *testEnv) vote(pollID, optionID, remoteAddr, fingerprint string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/vote", models.CastVoteRequest{
		OptionID:    optionID,
		Fingerprint: fingerprint,
	}, nil)
	req.SetPathValue("id", pollID)
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	e.polls.Vote(w, req)
	return w
}
