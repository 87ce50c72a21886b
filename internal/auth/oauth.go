// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
	googleendpoint "golang.org/x/oauth2/google"

	"github.com/taibuivan/paperchat/internal/platform/constants"
	"github.com/taibuivan/paperchat/internal/platform/ctxutil"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

// # Provider Contract

// Profile is the normalized identity a provider reports after code exchange.
type Profile struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// Provider abstracts a third-party OAuth identity issuer.
//
// # Why an interface?
//
// Providers are resolved by name from an explicit [Registry] built once at
// startup and passed to the bridge. No process-global strategy state exists,
// and tests can register fakes.
type Provider interface {
	// Name returns the registry key ("google", "github").
	Name() string

	// AuthCodeURL builds the provider's consent-screen URL carrying the CSRF state.
	AuthCodeURL(state string) string

	// FetchProfile exchanges the authorization code and fetches the normalized profile.
	FetchProfile(context context.Context, code string) (*Profile, error)
}

// Registry maps provider names to their implementations.
type Registry map[string]Provider

// NewRegistry builds a provider registry from the given implementations.
func NewRegistry(providers ...Provider) Registry {
	registry := make(Registry, len(providers))
	for _, provider := range providers {
		registry[provider.Name()] = provider
	}
	return registry
}

// Get resolves a provider by name.
func (registry Registry) Get(name string) (Provider, bool) {
	provider, found := registry[name]
	return provider, found
}

// # Google Provider

type googleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider builds the Google implementation of [Provider].
func NewGoogleProvider(clientID, clientSecret, redirectURL string) Provider {
	return &googleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleendpoint.Endpoint,
		},
	}
}

func (provider *googleProvider) Name() string { return ProviderGoogle }

func (provider *googleProvider) AuthCodeURL(state string) string {
	return provider.config.AuthCodeURL(state)
}

/*
FetchProfile exchanges the code and queries the Google userinfo endpoint.

Parameters:
  - context: context.Context
  - code: string (Authorization code from the consent redirect)

Returns:
  - *Profile: Normalized Google identity
  - error: Exchange or profile-fetch failures
*/
func (provider *googleProvider) FetchProfile(context context.Context, code string) (*Profile, error) {
	token, err := provider.config.Exchange(context, code)
	if err != nil {
		return nil, fmt.Errorf("google_oauth_exchange_failed: %w", err)
	}

	client := provider.config.Client(context, token)
	payload := struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}{}

	if err := fetchJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
		return nil, fmt.Errorf("google_oauth_userinfo_failed: %w", err)
	}

	return &Profile{
		Provider:  ProviderGoogle,
		SubjectID: payload.ID,
		Email:     payload.Email,
		Name:      payload.Name,
	}, nil
}

// # GitHub Provider

type githubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider builds the GitHub implementation of [Provider].
func NewGitHubProvider(clientID, clientSecret, redirectURL string) Provider {
	return &githubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     githubendpoint.Endpoint,
		},
	}
}

func (provider *githubProvider) Name() string { return ProviderGitHub }

func (provider *githubProvider) AuthCodeURL(state string) string {
	return provider.config.AuthCodeURL(state)
}

/*
FetchProfile exchanges the code and queries the GitHub user and emails APIs.

Description: GitHub omits the email from /user when it is private, so the
primary address is resolved through /user/emails as a fallback.

Parameters:
  - context: context.Context
  - code: string

Returns:
  - *Profile: Normalized GitHub identity
  - error: Exchange or profile-fetch failures
*/
func (provider *githubProvider) FetchProfile(context context.Context, code string) (*Profile, error) {
	token, err := provider.config.Exchange(context, code)
	if err != nil {
		return nil, fmt.Errorf("github_oauth_exchange_failed: %w", err)
	}

	client := provider.config.Client(context, token)
	payload := struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}{}

	if err := fetchJSON(client, "https://api.github.com/user", &payload); err != nil {
		return nil, fmt.Errorf("github_oauth_user_failed: %w", err)
	}

	email := payload.Email
	if email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := fetchJSON(client, "https://api.github.com/user/emails", &emails); err != nil {
			return nil, fmt.Errorf("github_oauth_emails_failed: %w", err)
		}
		for _, candidate := range emails {
			if candidate.Primary {
				email = candidate.Email
				break
			}
		}
	}

	displayName := payload.Name
	if displayName == "" {
		displayName = payload.Login
	}

	return &Profile{
		Provider:  ProviderGitHub,
		SubjectID: strconv.FormatInt(payload.ID, 10),
		Email:     email,
		Name:      displayName,
	}, nil
}

// fetchJSON performs an authenticated GET and decodes the JSON body.
func fetchJSON(client *http.Client, url string, target interface{}) error {
	response, err := client.Get(url)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", response.StatusCode, string(body))
	}

	return json.NewDecoder(response.Body).Decode(target)
}

// # OAuth Bridge

// OAuthBridge maps third-party profiles onto local identities and sessions.
//
// # Invariant
//
// A Credentials-type account can never be entered via OAuth, and an OAuth
// identity can only enter through the provider it was first linked with.
type OAuthBridge struct {
	userRepository     UserRepository
	identityRepository OAuthIdentityRepository
	sessionManager     *SessionManager
	stateRepository    StateRepository
	registry           Registry
}

// NewOAuthBridge constructs an [OAuthBridge] with its collaborators.
func NewOAuthBridge(
	userRepo UserRepository,
	identityRepo OAuthIdentityRepository,
	sessionManager *SessionManager,
	stateRepo StateRepository,
	registry Registry,
) *OAuthBridge {
	return &OAuthBridge{
		userRepository:     userRepo,
		identityRepository: identityRepo,
		sessionManager:     sessionManager,
		stateRepository:    stateRepo,
		registry:           registry,
	}
}

// Provider resolves a registered provider by name.
func (bridge *OAuthBridge) Provider(name string) (Provider, bool) {
	return bridge.registry.Get(name)
}

/*
Begin issues a CSRF state nonce and returns the provider's consent URL.

Parameters:
  - context: context.Context
  - provider: Provider

Returns:
  - string: Consent-screen URL to redirect the browser to
  - error: Nonce generation or storage failures
*/
func (bridge *OAuthBridge) Begin(context context.Context, provider Provider) (string, error) {
	state, err := sec.GenerateSecureToken(OAuthStateLength)
	if err != nil {
		return "", fmt.Errorf("oauth_bridge_state_generation_failed: %w", err)
	}

	if err := bridge.stateRepository.Set(context, state, provider.Name(), constants.OAuthStateTTL); err != nil {
		return "", fmt.Errorf("oauth_bridge_state_store_failed: %w", err)
	}

	return provider.AuthCodeURL(state), nil
}

/*
ConsumeState validates the callback state against the issuing provider.

Description: The nonce is single-use; it must exist, not be expired, and
have been issued for the same provider handling the callback.

Parameters:
  - context: context.Context
  - state: string
  - provider: string

Returns:
  - error: Unauthorized on unknown, expired, or cross-provider state
*/
func (bridge *OAuthBridge) ConsumeState(context context.Context, state, provider string) error {
	issuedFor, err := bridge.stateRepository.Consume(context, state)
	if err != nil {
		return err
	}
	if issuedFor != provider {
		return fmt.Errorf("oauth_bridge_state_provider_mismatch: issued for %s", issuedFor)
	}
	return nil
}

/*
ResolveProfile maps a provider profile onto a local user and session.

Description: Implements the account-linking rules: reject profiles without an
email, reject Credentials-type accounts, reject identities entering through
the wrong provider, reuse-or-renew the session for known identities, and
create user + identity + fresh session for new ones.

Every internal failure is converted into a LoginResult with Success=false so
the provider callback can always render a uniform failure response instead
of a 500.

Parameters:
  - context: context.Context
  - profile: *Profile

Returns:
  - *LoginResult: Success payload or {Success:false, Error} value
*/
func (bridge *OAuthBridge) ResolveProfile(context context.Context, profile *Profile) *LoginResult {

	// Step 1: a usable email is mandatory for identity mapping.
	if profile.Email == "" {
		return failedLogin(fmt.Sprintf("No email found in %s profile", profile.Provider))
	}

	// Step 2: look up an existing account by email.
	user, err := bridge.userRepository.FindByEmail(context, profile.Email)
	if err == nil {
		return bridge.resolveExisting(context, user, profile)
	}

	// Step 5: no account yet. Create the user verified immediately (the
	// provider already confirmed email ownership), link the identity, and
	// mint a fresh session.
	newUser := &User{
		Username:   profile.Name,
		Email:      profile.Email,
		IsVerified: true,
		AuthType:   AuthTypeOAuth,
		Role:       sec.RoleMember,
	}

	if err := bridge.userRepository.Create(context, newUser); err != nil {
		return bridge.failedResolution(context, "oauth_bridge_create_user_failed", err)
	}

	identity := &OAuthIdentity{
		UserID:     newUser.ID,
		Provider:   profile.Provider,
		ProviderID: profile.SubjectID,
	}
	if err := bridge.identityRepository.Create(context, identity); err != nil {
		return bridge.failedResolution(context, "oauth_bridge_create_identity_failed", err)
	}

	session, err := bridge.sessionManager.GetOrCreate(context, newUser)
	if err != nil {
		return bridge.failedResolution(context, "oauth_bridge_new_user_session_failed", err)
	}

	return &LoginResult{
		Success: true,
		UserID:  newUser.ID,
		Token:   session.Token,
		Email:   newUser.Email,
	}
}

// resolveExisting handles steps 3 and 4 for an account that already exists.
func (bridge *OAuthBridge) resolveExisting(context context.Context, user *User, profile *Profile) *LoginResult {

	// Step 3: a Credentials-type account can never be hijacked via OAuth.
	if user.AuthType == AuthTypeCredentials {
		return failedLogin(MsgUseCredentials)
	}

	// Step 4: the identity must have been linked through this provider for
	// this user. A mismatch names the provider the account actually uses.
	identity, err := bridge.identityRepository.FindBySubject(context, profile.Provider, profile.SubjectID)
	if err != nil || identity.UserID != user.ID {
		return failedLogin(fmt.Sprintf("Please authenticate using %s.", bridge.linkedProviderName(context, user, profile.Provider)))
	}

	session, err := bridge.sessionManager.GetOrCreate(context, user)
	if err != nil {
		return bridge.failedResolution(context, "oauth_bridge_session_failed", err)
	}

	message := MsgSessionCreated
	if session.Reused {
		message = MsgSessionReused
	}

	return &LoginResult{
		Success: true,
		UserID:  user.ID,
		Token:   session.Token,
		Email:   user.Email,
		Message: message,
		Reused:  session.Reused,
	}
}

// linkedProviderName reports which provider the user's account is linked to,
// for the cross-provider rejection message.
func (bridge *OAuthBridge) linkedProviderName(context context.Context, user *User, attempted string) string {
	identities, err := bridge.identityRepository.FindByUserID(context, user.ID)
	if err == nil {
		for _, identity := range identities {
			if identity.Provider != attempted {
				return identity.Provider
			}
		}
	}

	// Fall back to naming the counterpart of the attempted provider.
	if attempted == ProviderGoogle {
		return ProviderGitHub
	}
	return ProviderGoogle
}

// failedResolution logs the underlying cause server-side and produces the
// uniform failure value for the callback handler.
func (bridge *OAuthBridge) failedResolution(context context.Context, event string, err error) *LoginResult {
	ctxutil.GetLogger(context).ErrorContext(context, event, slog.Any("error", err))
	return failedLogin("Login failed")
}

// failedLogin builds the {Success:false, Error} value of the resolution contract.
func failedLogin(message string) *LoginResult {
	return &LoginResult{Success: false, Error: message}
}
