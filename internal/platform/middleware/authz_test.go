// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/paperchat/internal/platform/constants"
	"github.com/taibuivan/paperchat/internal/platform/ctxutil"
	"github.com/taibuivan/paperchat/internal/platform/middleware"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

func guardedEcho(t *testing.T, guard func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	return guard(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetPrincipal(request.Context())
		require.NotNil(t, claims)
		writer.WriteHeader(http.StatusOK)
	}))
}

/*
TestRequireUser_TokenSources verifies acceptance via the Authorization header
and the cookie fallback, and rejection when neither is present.
*/
func TestRequireUser_TokenSources(t *testing.T) {
	tokens := sec.NewTokenService("user-secret", "test")
	token, err := tokens.Sign(7, "alice@x.com", "member", time.Hour)
	require.NoError(t, err)

	handler := guardedEcho(t, middleware.RequireUser(tokens))

	tests := []struct {
		name       string
		decorate   func(*http.Request)
		wantStatus int
	}{
		{
			name:       "bearer header",
			decorate:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
		},
		{
			name: "session cookie",
			decorate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: token})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			decorate:   func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			decorate:   func(r *http.Request) { r.Header.Set("Authorization", token) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.decorate(request)
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestRequireAdmin_RejectsUserScopedToken verifies that the two guards are
keyed to distinct secrets: a token minted for the user scope never passes
the admin guard, whatever its claims say.
*/
func TestRequireAdmin_RejectsUserScopedToken(t *testing.T) {
	userTokens := sec.NewTokenService("user-secret", "test")
	adminTokens := sec.NewTokenService("admin-secret", "test")

	userToken, err := userTokens.Sign(7, "alice@x.com", "admin", time.Hour)
	require.NoError(t, err)
	adminToken, err := adminTokens.Sign(9, "", "admin", time.Hour)
	require.NoError(t, err)

	handler := guardedEcho(t, middleware.RequireAdmin(adminTokens))

	request := httptest.NewRequest(http.MethodGet, "/admin", nil)
	request.Header.Set("Authorization", "Bearer "+userToken)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request = httptest.NewRequest(http.MethodGet, "/admin", nil)
	request.Header.Set("Authorization", "Bearer "+adminToken)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequireUser_RejectsTamperedToken verifies signature enforcement.
*/
func TestRequireUser_RejectsTamperedToken(t *testing.T) {
	tokens := sec.NewTokenService("user-secret", "test")
	token, err := tokens.Sign(7, "alice@x.com", "member", time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	handler := guardedEcho(t, middleware.RequireUser(tokens))
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+tampered)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestRequireUser_RejectsExpiredToken verifies expiry enforcement.
*/
func TestRequireUser_RejectsExpiredToken(t *testing.T) {
	tokens := sec.NewTokenService("user-secret", "test")
	token, err := tokens.Sign(7, "alice@x.com", "member", -time.Minute)
	require.NoError(t, err)

	handler := guardedEcho(t, middleware.RequireUser(tokens))
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
