// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Description: Populates user.ID and user.CreatedAt from the database on return.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		MarkVerified updates the user's status to is_verified = true.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, email string) error
}

// # Verification Data Access

// VerificationRepository defines the data access contract for email OTP records.
type VerificationRepository interface {

	/*
		Create stores the OTP issued to an email at signup.

		Parameters:
		  - context: context.Context
		  - record: *VerificationRecord

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, record *VerificationRecord) error

	/*
		FindMatch returns the record matching both email and OTP exactly.

		Parameters:
		  - context: context.Context
		  - email: string
		  - otp: string

		Returns:
		  - *VerificationRecord: Hydrated entity
		  - error: Not-found or retrieval failures
	*/
	FindMatch(context context.Context, email, otp string) (*VerificationRecord, error)

	/*
		Delete removes the record after successful verification (consumed OTP).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, email string) error
}

// # OAuth Identity Data Access

// OAuthIdentityRepository defines the data access contract for provider links.
type OAuthIdentityRepository interface {

	/*
		Create persists a new provider link for a user.

		Parameters:
		  - context: context.Context
		  - identity: *OAuthIdentity

		Returns:
		  - error: Persistence failures (including duplicate provider subject)
	*/
	Create(context context.Context, identity *OAuthIdentity) error

	/*
		FindBySubject returns the identity for (provider, providerID).

		Parameters:
		  - context: context.Context
		  - provider: string
		  - providerID: string

		Returns:
		  - *OAuthIdentity: Hydrated entity
		  - error: Not-found or retrieval failures
	*/
	FindBySubject(context context.Context, provider, providerID string) (*OAuthIdentity, error)

	/*
		FindByUserID returns all provider links for a user.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - []OAuthIdentity: Possibly empty slice
		  - error: Retrieval failures
	*/
	FindByUserID(context context.Context, userID int64) ([]OAuthIdentity, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for bearer-token sessions.
type SessionRepository interface {

	/*
		FindByUserID returns the session row for a user, live or expired.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - *Session: Hydrated entity
		  - error: Not-found or retrieval failures
	*/
	FindByUserID(context context.Context, userID int64) (*Session, error)

	/*
		Upsert atomically installs a session for a user unless a live one exists.

		Description: Inserts the candidate session, or replaces the stored row only
		when its expiry has passed. When a concurrent live session wins the race,
		the stored winner is returned instead and installed = false.

		Parameters:
		  - context: context.Context
		  - session: *Session (candidate token and expiry)

		Returns:
		  - *Session: The authoritative session after the operation
		  - bool: true if the candidate was installed
		  - error: Persistence failures
	*/
	Upsert(context context.Context, session *Session) (*Session, bool, error)

	/*
		DeleteExpired removes expired session rows for the given user only.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context, userID int64) error
}

// # Volatile Data Access

// StateRepository defines the contract for storing volatile OAuth state nonces.
type StateRepository interface {

	/*
		Set stores a state nonce tagged with its provider for a limited duration.

		Parameters:
		  - context: context.Context
		  - state: string
		  - provider: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, state string, provider string, ttl time.Duration) error

	/*
		Consume retrieves and deletes the provider tagged to a state nonce.

		Description: Single-use semantics; a second call with the same state fails.

		Parameters:
		  - context: context.Context
		  - state: string

		Returns:
		  - string: Provider name
		  - error: Not-found (unknown or expired state) or retrieval failures
	*/
	Consume(context context.Context, state string) (string, error)
}
