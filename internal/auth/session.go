// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
)

// # Contracts & Types

// TokenSigner defines the contract for minting signed bearer tokens.
type TokenSigner interface {
	// Sign creates a signed JWT string for the given principal.
	//
	// # Parameters
	//   - userID: The numeric ID of the account.
	//   - email: The email embedded in the claims (empty for admin tokens).
	//   - role: The role of the account.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	Sign(userID int64, email, role string, timeToLive time.Duration) (string, error)
}

// SessionManager owns the reuse-or-renew lifecycle of bearer sessions.
//
// # Invariant
//
// At most one live session row exists per user. The manager reuses a live
// stored token verbatim rather than minting a duplicate; renewal happens only
// after the stored expiry has passed.
type SessionManager struct {
	sessionRepository SessionRepository
	userSigner        TokenSigner
	adminSigner       TokenSigner
	now               func() time.Time
}

// NewSessionManager constructs a [SessionManager] with both token signers.
func NewSessionManager(sessionRepo SessionRepository, userSigner, adminSigner TokenSigner) *SessionManager {
	return &SessionManager{
		sessionRepository: sessionRepo,
		userSigner:        userSigner,
		adminSigner:       adminSigner,
		now:               time.Now,
	}
}

// SessionResult is the discriminated outcome of a session acquisition.
type SessionResult struct {
	Token   string
	Created bool
	Reused  bool
}

// Message returns the contract string describing how the token was obtained.
func (result *SessionResult) Message() string {
	if result.Reused {
		return MsgSessionReused
	}
	return MsgSessionCreated
}

/*
GetOrCreate returns the authoritative session token for the user.

Description: Looks up the stored session. A live one is returned verbatim
(reuse). A missing or expired one triggers lazy cleanup, a fresh HS256 token
minted with the role-appropriate signer, and an atomic conditional upsert.
If a concurrent login installs a live session first, the winner's token is
returned as reused.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - *SessionResult: Token plus created/reused discriminator
  - error: Signing or storage failures
*/
func (manager *SessionManager) GetOrCreate(context context.Context, user *User) (*SessionResult, error) {
	currentTime := manager.now()

	// Reuse path: a live stored session short-circuits minting entirely.
	existing, err := manager.sessionRepository.FindByUserID(context, user.ID)
	if err == nil && existing.IsLive(currentTime) {
		return &SessionResult{Token: existing.Token, Reused: true}, nil
	}
	if err != nil && !apperr.IsAppError(err) {
		return nil, fmt.Errorf("session_manager_lookup_failed: %w", err)
	}

	// Lazy cleanup of this user's expired rows before re-minting.
	if existing != nil {
		if err := manager.ExpireSessions(context, user.ID); err != nil {
			return nil, err
		}
	}

	// Mint a fresh token. The row expiry and the JWT 'exp' claim are both
	// derived from SessionTTL so they cannot drift apart.
	token, err := manager.signerFor(user).Sign(user.ID, user.Email, string(user.Role), SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session_manager_sign_failed: %w", err)
	}

	candidate := &Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: currentTime.Add(SessionTTL),
	}

	installed, won, err := manager.sessionRepository.Upsert(context, candidate)
	if err != nil {
		return nil, fmt.Errorf("session_manager_upsert_failed: %w", err)
	}

	// Losing the upsert race means another login installed a live session
	// between our lookup and our write; its token is the authoritative one.
	if !won {
		return &SessionResult{Token: installed.Token, Reused: true}, nil
	}

	return &SessionResult{Token: installed.Token, Created: true}, nil
}

/*
ExpireSessions deletes the user's session rows whose expiry has passed.

Description: Invoked inline on the affected user's next login, never as a
background sweep.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Cleanup failures
*/
func (manager *SessionManager) ExpireSessions(context context.Context, userID int64) error {
	if err := manager.sessionRepository.DeleteExpired(context, userID); err != nil {
		return fmt.Errorf("session_manager_expire_failed: %w", err)
	}
	return nil
}

// signerFor selects the token service keyed to the user's principal class.
func (manager *SessionManager) signerFor(user *User) TokenSigner {
	if user.Role.IsAdmin() {
		return manager.adminSigner
	}
	return manager.userSigner
}
