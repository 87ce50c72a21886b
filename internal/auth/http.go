// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
HTTP delivery layer for the authentication domain.

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles token issuance responses and OAuth callback cookies.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/constants"
	requestutil "github.com/taibuivan/paperchat/internal/platform/request"
	"github.com/taibuivan/paperchat/internal/platform/respond"
	"github.com/taibuivan/paperchat/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages all user lifecycle entry points: signup, email
// verification, credential sign-in, and the OAuth consent/callback pair.
type Handler struct {
	authService *Service
	oauthBridge *OAuthBridge
	frontendURL string
}

// NewHandler constructs a new [Handler] with its service dependencies.
func NewHandler(service *Service, bridge *OAuthBridge, frontendURL string) *Handler {
	return &Handler{
		authService: service,
		oauthBridge: bridge,
		frontendURL: frontendURL,
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /signup           : Creates a new unverified account.
//   - POST /signin           : Authenticates and returns a session token.
//   - POST /verify           : Confirms email ownership with the mailed OTP.
//   - GET  /{provider}          : Redirects to the provider's consent screen.
//   - GET  /{provider}/callback : Completes the OAuth code exchange.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signUp)
	router.Post("/signin", handler.signIn)
	router.Post("/verify", handler.verifyEmail)

	router.Get("/google", handler.oauthStart(ProviderGoogle))
	router.Get("/google/callback", handler.oauthCallback(ProviderGoogle))
	router.Get("/github", handler.oauthStart(ProviderGitHub))
	router.Get("/github/callback", handler.oauthCallback(ProviderGitHub))

	return router
}

// # Request Payloads

type signUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	AuthType string `json:"auth_type"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	AuthType string `json:"auth_type"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

/*
SignUp handles the creation of a new user account.

POST /api/auth/signup

Description: Validates input shape, checks for identity conflicts, persists
an unverified user, and mails the verification OTP.

Request:
  - Body: signUpRequest (Username, Password, Email, AuthType)

Response:
  - 201: Pending-verification result with redirect hint
  - 400: ErrInvalidJSON: Bad input, validation failure, or duplicate email
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// All shape checks run before any store access: an invalid request must
	// produce zero side effects.
	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLen).
		MaxLen(FieldUsername, input.Username, UsernameMaxLen).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Password(FieldPassword, input.Password).
		Required(FieldAuthType, input.AuthType)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.SignUp(request.Context(), SignUpInput{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
		AuthType: AuthType(input.AuthType),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		constants.FieldMessage:  result.Message,
		constants.FieldEmail:    result.Email,
		constants.FieldRedirect: result.Redirect,
	})
}

/*
SignIn authenticates a user with email and password.

POST /api/auth/signin

Description: Verifies credentials and acquires the authoritative session via
reuse-or-renew. An admin-role user receives an admin-scoped token and a
dashboard redirect.

Request:
  - Body: signInRequest (Email, Password, AuthType)

Response:
  - 200: Session payload (success, jwtToken, userId/adminId, email, message)
  - 400: InvalidCredentials: Unknown email or password mismatch
  - 403: Forbidden: Wrong auth method or unverified email
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input signInRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Password(FieldPassword, input.Password).
		Required(FieldAuthType, input.AuthType)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.SignIn(request.Context(), SignInInput{
		Email:    input.Email,
		Password: input.Password,
		AuthType: AuthType(input.AuthType),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loginPayload(result))
}

/*
VerifyEmail confirms a user's email ownership.

POST /api/auth/verify

Description: Validates the (email, otp) pair and flips the verification flag.
The record is consumed on success.

Request:
  - Body: verifyRequest (Email, OTP)

Response:
  - 200: Success with sign-in redirect
  - 400: NOT_FOUND: No record matches the pair
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Email == "" || input.OTP == "" {
		respond.Error(writer, request, apperr.ValidationError("Email and OTP are required"))
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Email, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		constants.FieldMessage:  MsgEmailVerified,
		constants.FieldRedirect: RedirectSignIn,
	})
}

// # OAuth Endpoints

/*
oauthStart redirects the browser to the provider's consent screen.

GET /api/auth/{provider}

Description: Issues a single-use CSRF state nonce before redirecting.
*/
func (handler *Handler) oauthStart(providerName string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		provider, found := handler.oauthBridge.Provider(providerName)
		if !found {
			respond.Error(writer, request, apperr.NotFound("Provider"))
			return
		}

		consentURL, err := handler.oauthBridge.Begin(request.Context(), provider)
		if err != nil {
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		http.Redirect(writer, request, consentURL, http.StatusTemporaryRedirect)
	}
}

/*
oauthCallback completes the provider round-trip.

GET /api/auth/{provider}/callback?code=&state=

Description: Consumes the CSRF state, exchanges the code for a profile, and
resolves it into a local session. A successful resolution sets an HttpOnly
token cookie and redirects to the SPA's oauth-success page; any failure is a
400 JSON body, never a 500.
*/
func (handler *Handler) oauthCallback(providerName string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		provider, found := handler.oauthBridge.Provider(providerName)
		if !found {
			respond.Error(writer, request, apperr.NotFound("Provider"))
			return
		}

		state := request.URL.Query().Get("state")
		code := request.URL.Query().Get("code")
		if state == "" || code == "" {
			respond.Error(writer, request, apperr.ValidationError("Missing code or state parameter"))
			return
		}

		if err := handler.oauthBridge.ConsumeState(request.Context(), state, providerName); err != nil {
			respond.Error(writer, request, apperr.Unauthorized("OAuth state is invalid or expired"))
			return
		}

		profile, err := provider.FetchProfile(request.Context(), code)

		var result *LoginResult
		if err != nil {
			result = failedLogin(fmt.Sprintf("Failed to fetch %s profile", providerName))
		} else {
			result = handler.oauthBridge.ResolveProfile(request.Context(), profile)
		}

		if !result.Success {
			respond.JSON(writer, http.StatusBadRequest, map[string]string{
				constants.FieldError: result.Error,
			})
			return
		}

		http.SetCookie(writer, &http.Cookie{
			Name:     constants.TokenCookieName,
			Value:    result.Token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		redirectURL := fmt.Sprintf("%s/oauth-success?token=%s", handler.frontendURL, result.Token)
		http.Redirect(writer, request, redirectURL, http.StatusFound)
	}
}

// loginPayload maps a [LoginResult] onto the public JSON contract.
//
// The admin reuse path historically reported the principal under adminId
// rather than userId; the frontend still keys on that.
func loginPayload(result *LoginResult) map[string]any {
	payload := map[string]any{
		constants.FieldSuccess:  result.Success,
		constants.FieldJWTToken: result.Token,
		constants.FieldMessage:  result.Message,
	}

	if result.Email != "" {
		payload[constants.FieldEmail] = result.Email
	}

	if result.Role != "" {
		payload[constants.FieldRole] = result.Role
	}

	if result.Redirect != "" {
		payload[constants.FieldRedirect] = result.Redirect
	}

	if result.Role != "" && result.Reused {
		payload[constants.FieldAdminID] = result.UserID
	} else {
		payload[constants.FieldUserID] = result.UserID
	}

	return payload
}
