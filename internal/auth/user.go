// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential, session, and OAuth identity layer.

It defines the core domain entities (User, VerificationRecord, OAuthIdentity,
Session) and the logic for signup, email verification, credential sign-in,
OAuth profile resolution, and session lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/taibuivan/paperchat/internal/platform/sec"
)

// # Authentication Methods

// AuthType tags how an account authenticates. It is fixed at creation:
// a Credentials user may never sign in via OAuth and vice versa.
type AuthType string

const (
	AuthTypeCredentials AuthType = "Credentials"
	AuthTypeOAuth       AuthType = "OAuth"
)

// # Domain Entities

// User represents a registered member of the Paperchat platform.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security. Empty for OAuth accounts.
	IsVerified   bool         `json:"is_verified"`
	AuthType     AuthType     `json:"auth_type"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

// VerificationRecord holds the one-time code mailed to a user at signup.
// One-to-one with the user's email; deleted once verification succeeds.
type VerificationRecord struct {
	Email string `json:"email"`
	OTP   string `json:"-"` // Never serialized back to clients.
}

// OAuthIdentity links a local user to an external provider subject.
// (Provider, ProviderID) is unique; one identity per provider per user.
type OAuthIdentity struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is the single authoritative bearer-token session for a user.
// Expiry is enforced by deletion and recreation, never extension.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"` // The signed JWT stored verbatim. Omitted for security.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsLive reports whether the session's stored expiry has not yet passed.
func (session *Session) IsLive(now time.Time) bool {
	return session.ExpiresAt.After(now)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldAuthType = "auth_type"
	FieldOTP      = "otp"
)
