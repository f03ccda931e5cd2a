// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/polls"
)

// FingerprintHeader carries the browser fingerprint when it is not in the
// query string or body.
const FingerprintHeader = "X-Fingerprint"

// viewerFrom collects the identity signals of a request. bodyFingerprint
// takes precedence over the query string and header.
func viewerFrom(r *http.Request, bodyFingerprint string) polls.Viewer {
	fingerprint := bodyFingerprint
	if fingerprint == "" {
		fingerprint = r.URL.Query().Get("fingerprint")
	}
	if fingerprint == "" {
		fingerprint = r.Header.Get(FingerprintHeader)
	}

	return polls.Viewer{
		UserID:         middleware.UserID(r.Context()),
		NetworkAddress: middleware.GetClientIP(r),
		Fingerprint:    fingerprint,
		Code:           r.URL.Query().Get("code"),
	}
}
