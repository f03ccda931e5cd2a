// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSignSession(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		secret string
	}{
		{"standard", "user-123", "secret"},
		{"uuid id", "7f1c2a9e-0b8d-4a51-9b7e-3f6c1d2e4a5b", "another-secret"},
		{"empty secret", "user-456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := SignSession(tt.userID, tt.secret)

			if !strings.HasPrefix(token, tt.userID+".") {
				t.Errorf("SignSession() = %q, want prefix %q", token, tt.userID+".")
			}

			// Should be deterministic
			if token != SignSession(tt.userID, tt.secret) {
				t.Error("SignSession() is not deterministic")
			}

			// Should not contain padding
			if strings.Contains(token, "=") {
				t.Error("SignSession() contains padding")
			}

			got, err := VerifySession(token, tt.secret)
			if err != nil {
				t.Fatalf("VerifySession() error = %v", err)
			}
			if got != tt.userID {
				t.Errorf("VerifySession() = %q, want %q", got, tt.userID)
			}
		})
	}
}

func TestVerifySessionRejects(t *testing.T) {
	valid := SignSession("user-1", "secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "user-1"},
		{"empty mac", "user-1."},
		{"empty user", "." + strings.SplitN(valid, ".", 2)[1]},
		{"wrong secret", SignSession("user-1", "other")},
		{"swapped user", "user-2." + strings.SplitN(valid, ".", 2)[1]},
		{"truncated mac", valid[:len(valid)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifySession(tt.token, "secret"); err != ErrInvalidSession {
				t.Errorf("VerifySession(%q) error = %v, want ErrInvalidSession", tt.token, err)
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("GenerateCode() length = %d, want %d", len(code), CodeLength)
		}
		if err := ValidateCodeFormat(code); err != nil {
			t.Fatalf("GenerateCode() produced invalid code %q: %v", code, err)
		}
		if seen[code] {
			t.Fatalf("GenerateCode() produced duplicate %q", code)
		}
		seen[code] = true
	}
}

func TestValidateCodeFormat(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"abcXYZ019", false},
		{"", true},
		{"has-dash", true},
		{"has space", true},
		{"poll_vote_abc", true},
		{strings.Repeat("a", CodeLength), false},
		{strings.Repeat("a", CodeLength+1), true},
	}

	for _, tt := range tests {
		err := ValidateCodeFormat(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCodeFormat(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
	}
}

func TestBearerSessions(t *testing.T) {
	sessions := BearerSessions{Secret: "secret"}

	tests := []struct {
		name   string
		header string
		wantID string
		wantOK bool
	}{
		{"valid", "Bearer " + SignSession("u1", "secret"), "u1", true},
		{"missing", "", "", false},
		{"wrong scheme", "Basic " + SignSession("u1", "secret"), "", false},
		{"tampered", "Bearer " + SignSession("u1", "other"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			id, ok := sessions.UserID(req)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("UserID() = (%q, %v), want (%q, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
