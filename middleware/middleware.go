// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/cors"

	"github.com/danielhkuo/scanvote/auth"
	"github.com/danielhkuo/scanvote/models"
)

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 64 << 10

// HTTPLogger wraps a handler with structured access logging
func HTTPLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return httplogger.LoggingMiddlewareSlog(log, next)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response with a generic error code
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   errorCode(statusCode),
		Message: message,
	})
}

// errorCode turns a status into a snake_case code, e.g. 400 -> "bad_request"
func errorCode(statusCode int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(statusCode)), " ", "_")
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// CORS allows cross-origin requests from the given origins, or from any
// origin when the list is empty
func CORS(origins []string) func(http.Handler) http.Handler {
	allowCredentials := true
	if len(origins) == 0 {
		origins = []string{"*"}
		// Browsers reject credentialed responses with a wildcard origin
		allowCredentials = false
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Fingerprint"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}

// GetClientIP returns the client address without its port.
// Proxy headers are resolved upstream by chi's RealIP middleware, which
// rewrites RemoteAddr.
func GetClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	// No port: bare IPv4/IPv6, possibly bracketed
	return strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
}

type sessionKey struct{}

// Session resolves the request's session user once and stores it in the
// context. Requests without a valid session pass through unauthenticated.
func Session(provider auth.SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := provider.UserID(r); ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID attaches a session user id to ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, userID)
}

// UserID returns the session user id, or "" for unauthenticated requests
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(sessionKey{}).(string)
	return userID
}
