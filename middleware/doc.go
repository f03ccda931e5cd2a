// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

HTTPLogger wraps a handler with structured access logs (method, path,
status, duration) written through the given slog.Logger:

	r.Use(middleware.HTTPLogger(log))

# CORS Middleware

CORS allows the configured origins, or any origin without credentials when
none are configured. Methods GET, POST, PATCH, DELETE, OPTIONS are allowed
with headers Content-Type, Authorization, X-Fingerprint.

# Sessions

Session resolves the bearer session once per request and stores the user
id in the request context:

	r.Use(middleware.Session(auth.BearerSessions{Secret: cfg.SessionSecret}))
	userID := middleware.UserID(r.Context()) // "" when unauthenticated

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes at most MaxBodyBytes of the request body.

# Client IP Extraction

GetClientIP strips the port from RemoteAddr. Proxy headers are honored
only through chi's RealIP middleware, mounted ahead of the handlers.
*/
package middleware
