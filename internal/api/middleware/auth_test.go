// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://backlot.local/v1/methods?token=query", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.Header.Set(HeaderAPIToken, "header-token")
	assert.Equal(t, "bearer-token", ExtractToken(r))

	r.Header.Del("Authorization")
	assert.Equal(t, "header-token", ExtractToken(r))

	r.Header.Del(HeaderAPIToken)
	assert.Empty(t, ExtractToken(r), "query tokens are not accepted")
}

func TestAuthorizeToken(t *testing.T) {
	assert.True(t, AuthorizeToken("secret", "secret"))
	assert.False(t, AuthorizeToken("secret", "other"))
	assert.False(t, AuthorizeToken("", "secret"))
	assert.False(t, AuthorizeToken("secret", ""))
	assert.False(t, AuthorizeToken("", ""))
}

func TestAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name      string
		token     string
		anonymous bool
		header    string
		want      int
	}{
		{name: "anonymous without token", anonymous: true, want: http.StatusNoContent},
		{name: "fail closed without token", want: http.StatusUnauthorized},
		{name: "fail closed ignores header", header: "Bearer x", want: http.StatusUnauthorized},
		{name: "missing header", token: "tok", anonymous: true, want: http.StatusUnauthorized},
		{name: "wrong token", token: "tok", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", token: "tok", header: "Bearer tok", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/methods/makeRequest", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(tt.token, tt.anonymous)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"missing or invalid API token"}`, rec.Body.String())
			}
		})
	}
}
