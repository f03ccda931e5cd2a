// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/testutil"
)

// TestFullScanWorkflow tests the end-to-end flow:
// 1. Organizer signs up
// 2. Organizer creates an unlisted poll
// 3. A participant scans the vote code
// 4. The participant votes on the linked poll
// 5. The participant reloads the poll and sees the recorded choice
// 6. Organizer rotates codes; the printed code stops working
func TestFullScanWorkflow(t *testing.T) {
	env := setupEnv(t)

	// Step 1: Sign up
	w := httptest.NewRecorder()
	env.profiles.Create(w, testutil.MakeRequest("POST", "/profiles", models.CreateProfileRequest{Email: "org@example.com"}, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create profile failed: %d - %s", w.Code, w.Body.String())
	}
	var profileResp models.CreateProfileResponse
	testutil.AssertJSON(t, w, &profileResp)
	organizer := profileResp.Profile.ID

	// Step 2: Create an unlisted poll
	created := env.createPoll(t, organizer, models.CreatePollRequest{
		Title:   "Team offsite",
		Options: []models.OptionInput{{Label: "Mountains"}, {Label: "Beach"}, {Label: "City"}},
	})
	if created.Poll.Visibility != models.VisibilityUnlisted {
		t.Fatalf("Step 2 - Expected unlisted poll, got %s", created.Poll.Visibility)
	}
	voteCode := env.code(t, created.QRCodes.Vote)
	t.Logf("Step 2 - Created poll: %s", created.Poll.ID)

	// Step 3: Scan the vote code
	w = httptest.NewRecorder()
	env.scan.Resolve(w, scanRequest(voteCode))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Scan failed: %d - %s", w.Code, w.Body.String())
	}
	var scan models.ScanResponse
	testutil.AssertJSON(t, w, &scan)
	if scan.Intent != models.IntentVote {
		t.Fatalf("Step 3 - Expected vote intent, got %s", scan.Intent)
	}
	link, err := url.Parse(scan.PollURL)
	if err != nil {
		t.Fatalf("Step 3 - Bad poll_url: %v", err)
	}
	code := link.Query().Get("code")

	// Step 4: Vote with a fingerprint, using the scanned code
	beach := created.Options[1].ID
	req := testutil.MakeRequest("POST", "/polls/"+created.Poll.ID+"/vote?code="+code,
		models.CastVoteRequest{OptionID: beach}, map[string]string{FingerprintHeader: "fp-participant"})
	req.SetPathValue("id", created.Poll.ID)
	req.RemoteAddr = ""
	w = httptest.NewRecorder()
	env.polls.Vote(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Vote failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 5: Reload the unlisted poll using the scanned code
	req = httptest.NewRequest("GET", "/polls/"+created.Poll.ID+"?code="+code+"&fingerprint=fp-participant", nil)
	req.SetPathValue("id", created.Poll.ID)
	req.RemoteAddr = ""
	w = httptest.NewRecorder()
	env.polls.GetPoll(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Get poll failed: %d - %s", w.Code, w.Body.String())
	}
	var view models.PollView
	testutil.AssertJSON(t, w, &view)
	if !view.HasVoted || view.VotedOptionID == nil || *view.VotedOptionID != beach {
		t.Errorf("Step 5 - Expected recorded choice %s, got %+v", beach, view.VotedOptionID)
	}
	if view.TotalVotes != 1 || view.Options[1].Votes != 1 {
		t.Errorf("Step 5 - Expected one vote for Beach, got %+v", view.Options)
	}

	// Step 6: Rotate and rescan the printed code
	if _, err := env.svc.RotateTokens(t.Context(), created.Poll.ID, organizer); err != nil {
		t.Fatalf("Step 6 - Rotate failed: %v", err)
	}
	w = httptest.NewRecorder()
	env.scan.Resolve(w, scanRequest(voteCode))
	if w.Code != http.StatusNotFound {
		t.Errorf("Step 6 - Expected rotated code to be rejected, got %d", w.Code)
	}
}
