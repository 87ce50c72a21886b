// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Session Policy

const (
	// SessionTTL is the shared lifetime of the signed token and the session
	// row. Both are set at creation from this one constant so the JWT 'exp'
	// claim and the row's expires_at always agree.
	SessionTTL = time.Hour
)

// # Verification Policy

const (
	// OTPLength is the number of digits in the emailed verification code.
	OTPLength = 4
)

// # OAuth Providers

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"

	// OAuthStateLength is the byte length of the random CSRF state nonce.
	OAuthStateLength = 32
)

// # Username Policy

const (
	UsernameMinLen = 3
	UsernameMaxLen = 10
)

// # Redirect Hints
//
// Relative paths the frontend uses to route the user after an auth response.

const (
	RedirectVerify         = "/api/auth/verify"
	RedirectSignIn         = "/api/auth/signin"
	RedirectGoogleSignIn   = "/api/auth/google"
	RedirectAdminDashboard = "/admin/dashboard"
)

// # Response Messages
//
// Exact strings of the public API contract. The frontend matches on some of
// them (notably the session-reuse markers), so they are frozen here.

const (
	MsgSessionCreated     = "New session created"
	MsgSessionReused      = "Session reused"
	MsgLoginSessionReused = "Login successful,Session reused"
	MsgSignUpSuccess      = "User created successfully. Please verify your email."
	MsgEmailVerified      = "Email verified successfully"
	MsgInvalidOTP         = "Invalid OTP or email\n Please try again."
	MsgAlreadyRegistered  = "Username already exists\n Please SignIn.!"
	MsgNotRegistered      = "Invalid. Please register yourself."
	MsgInvalidPassword    = "Invalid password"
	MsgUseOAuthProvider   = "This account was created using Google/GitHub. Please sign in with that provider."
	MsgUseOAuthSignIn     = "Please sign in with Google/Github"
	MsgUseCredentials     = "Please sign in using credentials. OAuth login is not allowed for this account."
	MsgVerifyFirst        = "Please verify your email first"
)
