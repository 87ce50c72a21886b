// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/constants"
	"github.com/taibuivan/paperchat/internal/platform/ctxutil"
	"github.com/taibuivan/paperchat/internal/platform/respond"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec` token
// service implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// RequireUser blocks requests that do not carry a valid user-scope token.
//
// # Flow
//  1. Extract the token from 'Authorization: Bearer <token>' or the session cookie.
//  2. If absent, abort with HTTP 401 Unauthorized.
//  3. Verify the JWT via the user-scope [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// # Parameters
//   - verifier: A TokenVerifier holding the user signing secret.
//
// # Returns
//   - An [http.Handler] middleware.
func RequireUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return requireToken(verifier)
}

// RequireAdmin blocks requests that do not carry a valid admin-scope token.
//
// Admin tokens are signed with a secret distinct from user tokens, so a regular
// user token always fails verification here regardless of its claims.
//
// # Parameters
//   - verifier: A TokenVerifier holding the admin signing secret.
//
// # Returns
//   - An [http.Handler] middleware.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	return requireToken(verifier)
}

// requireToken is the shared guard body for both token scopes.
func requireToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Token Extraction ───────────────────────────────────────────
			tokenStr := extractToken(request)
			if tokenStr == "" {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the session cookie set after an OAuth callback.
func extractToken(request *http.Request) string {

	// Prefer the explicit Authorization header
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	// Fall back to the cookie used by browser SPA sessions
	if cookie, err := request.Cookie(constants.TokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}
