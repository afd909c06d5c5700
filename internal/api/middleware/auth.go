// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	xglog "github.com/ManuGH/backlot/internal/log"
)

// HeaderAPIToken is the alternative to an Authorization bearer token.
const HeaderAPIToken = "X-API-Token"

// ExtractToken returns the bearer token of r, falling back to the
// X-API-Token header. Query parameters are never consulted.
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(r.Header.Get(HeaderAPIToken))
}

// AuthorizeToken compares in constant time. Empty tokens never match.
func AuthorizeToken(got, expected string) bool {
	if strings.TrimSpace(expected) == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// Auth enforces token authentication. With an empty token, anonymous
// decides between passing every request through and failing closed.
func Auth(token string, anonymous bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" && anonymous {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := xglog.WithComponentFromContext(r.Context(), "auth")
			if token == "" {
				logger.Error().Str(xglog.FieldEvent, "auth.fail_closed").
					Str(xglog.FieldPath, r.URL.Path).
					Msg("no API token configured, denying access")
				unauthorized(w)
				return
			}
			got := ExtractToken(r)
			if got == "" {
				logger.Warn().Str(xglog.FieldEvent, "auth.missing_token").Msg("authorization header missing")
				unauthorized(w)
				return
			}
			if !AuthorizeToken(got, token) {
				logger.Warn().Str(xglog.FieldEvent, "auth.invalid_token").Msg("invalid api token")
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="backlot"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"missing or invalid API token"}`))
}
