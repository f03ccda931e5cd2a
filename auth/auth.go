// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrInvalidSession = errors.New("invalid session token")
	ErrInvalidCode    = errors.New("invalid code format")
)

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength is the length of an access code. 22 base62 characters carry
// about 131 bits.
const CodeLength = 22

// SignSession creates a bearer token for a user: "<user id>.<hmac>"
// This is deterministic and verifiable without storage
func SignSession(userID, secret string) string {
	return userID + "." + sessionMAC(userID, secret)
}

// VerifySession checks a bearer token and returns the user id it was issued for
func VerifySession(token, secret string) (string, error) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", ErrInvalidSession
	}
	userID, mac := token[:i], token[i+1:]

	expected := sessionMAC(userID, secret)
	if !hmac.Equal([]byte(mac), []byte(expected)) {
		return "", ErrInvalidSession
	}
	return userID, nil
}

func sessionMAC(userID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	sum := h.Sum(nil)
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateCode creates a random, URL-friendly access code.
// Codes carry no information about the poll they open.
func GenerateCode() (string, error) {
	code, err := gonanoid.Generate(base62Chars, CodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}

// ValidateCodeFormat rejects strings that GenerateCode could never have produced
func ValidateCodeFormat(code string) error {
	if code == "" || len(code) > CodeLength {
		return ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(base62Chars, code[i]) < 0 {
			return ErrInvalidCode
		}
	}
	return nil
}

// SessionProvider yields the stable user id behind a request, if any.
type SessionProvider interface {
	UserID(r *http.Request) (string, bool)
}

// BearerSessions reads "Authorization: Bearer <token>" signed with SignSession.
type BearerSessions struct {
	Secret string
}

func (b BearerSessions) UserID(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	userID, err := VerifySession(strings.TrimSpace(token), b.Secret)
	if err != nil {
		return "", false
	}
	return userID, true
}
