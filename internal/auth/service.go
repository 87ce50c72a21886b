// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/ctxutil"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

// # Contracts & Types

// MailSender defines the contract for dispatching transactional email.
//
// Delivery is best-effort: signup continues even when the OTP email fails,
// so implementations must never be load-bearing for correctness.
type MailSender interface {
	Send(context context.Context, to, subject, htmlBody string) error
}

// Service implements the credential authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, signup,
// or sign-in logic must be reviewed by the security team.
type Service struct {
	userRepository         UserRepository
	verificationRepository VerificationRepository
	sessionManager         *SessionManager
	mailSender             MailSender
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	verificationRepo VerificationRepository,
	sessionManager *SessionManager,
	mailSender MailSender,
) *Service {
	return &Service{
		userRepository:         userRepo,
		verificationRepository: verificationRepo,
		sessionManager:         sessionManager,
		mailSender:             mailSender,
	}
}

// # Signup Flow

// SignUpInput holds the data required to enroll a new member.
// Shape validation happens in the HTTP layer before this struct is built,
// so an invalid request never reaches storage.
type SignUpInput struct {
	Username string
	Password string
	Email    string
	AuthType AuthType
}

// SignUpResult is the pending-verification outcome of a successful signup.
type SignUpResult struct {
	Email    string
	Message  string
	Redirect string
}

/*
SignUp hashes, persists, and begins email verification for a new account.

Description: Enrolls a new Credentials member: checks email uniqueness,
bcrypt-hashes the password, inserts the unverified user row, stores a 4-digit
OTP, and dispatches it by email as a fire-and-forget side effect.

Parameters:
  - context: context.Context
  - input: SignUpInput

Returns:
  - *SignUpResult: Pending-verification hint for the frontend
  - err: Conflict (if email exists) or storage errors
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*SignUpResult, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict(MsgAlreadyRegistered)
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Unverified until the OTP round-trip.
	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		IsVerified:   false,
		AuthType:     AuthTypeCredentials,
		Role:         sec.RoleMember,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Generate and store the verification OTP
	otp, err := sec.GenerateOTP(OTPLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_otp_generation_failed: %w", err)
	}

	record := &VerificationRecord{Email: user.Email, OTP: otp}
	if err := service.verificationRepository.Create(context, record); err != nil {
		return nil, err
	}

	// Dispatch the OTP email. Failures are logged, never surfaced: the user
	// row and verification row already exist and stay valid.
	if err := service.mailSender.Send(context, user.Email,
		"Verify your Paperchat account",
		fmt.Sprintf("<p>Your verification code is <strong>%s</strong></p>", otp),
	); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "signup_otp_email_failed",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	}

	return &SignUpResult{
		Email:    user.Email,
		Message:  MsgSignUpSuccess,
		Redirect: RedirectVerify,
	}, nil
}

// # Email Verification

/*
VerifyEmail confirms email ownership using the mailed OTP.

Description: Requires an exact (email, otp) match. On success the user's
verification flag is flipped and the record is deleted, so a captured OTP
cannot be replayed.

Parameters:
  - context: context.Context
  - email: string
  - otp: string

Returns:
  - err: 400 NOT_FOUND on a missed match, or storage errors
*/
func (service *Service) VerifyEmail(context context.Context, email, otp string) error {

	// Exact-match lookup; a miss is a client error per the API contract.
	if _, err := service.verificationRepository.FindMatch(context, email, otp); err != nil {
		return err
	}

	// Flip the verification flag in persistent storage
	if err := service.userRepository.MarkVerified(context, email); err != nil {
		return err
	}

	// Consume the OTP so it cannot be replayed
	if err := service.verificationRepository.Delete(context, email); err != nil {
		return err
	}

	return nil
}

// # Sign-In Flow

// SignInInput defines credentials for an authentication attempt.
type SignInInput struct {
	Email    string
	Password string
	AuthType AuthType
}

// LoginResult is the transport-ready outcome of an authentication attempt.
// The same shape is produced by the credential and OAuth paths. OAuth
// resolution reports failures through Success=false and Error rather than a
// returned err, so the callback handler can always render a redirect.
type LoginResult struct {
	Success  bool
	UserID   int64
	Token    string
	Email    string
	Message  string
	Role     string
	Redirect string
	Reused   bool
	Error    string
}

/*
SignIn validates user credentials and acquires a session token.

Description: Applies the auth-type gate, password verification, and the
verified-email gate in order, then delegates to the [SessionManager]. A user
whose role is admin passes the exact same gates; only the signing secret,
the reported role, and the dashboard redirect differ.

Parameters:
  - context: context.Context
  - input: SignInInput

Returns:
  - *LoginResult: Token, identity, and session-reuse discriminator
  - err: Forbidden, InvalidCredentials, or internal failures
*/
func (service *Service) SignIn(context context.Context, input SignInInput) (*LoginResult, error) {

	// Gate 1: the request itself must claim the credential method.
	if input.AuthType != AuthTypeCredentials {
		return nil, apperr.Forbidden(MsgUseOAuthSignIn)
	}

	// Resolve the account. An unknown email is a client error with a
	// registration hint, per the API contract.
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.InvalidCredentials(MsgNotRegistered)
		}
		return nil, err
	}

	// Gate 2: an OAuth-created account has no usable password. Point the
	// user back at their provider.
	if user.AuthType != AuthTypeCredentials {
		return nil, apperr.Forbidden(MsgUseOAuthProvider).WithRedirect(RedirectGoogleSignIn)
	}

	// A Credentials row without a hash cannot be authenticated.
	if user.PasswordHash == "" {
		return nil, apperr.Internal(fmt.Errorf("auth_service_missing_password_hash: user %d", user.ID))
	}

	// Gate 3: constant-time password comparison via bcrypt.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials(MsgInvalidPassword)
	}

	// Gate 4: unverified accounts are pointed at the verification flow.
	if !user.IsVerified {
		return nil, apperr.Forbidden(MsgVerifyFirst).WithRedirect(RedirectVerify)
	}

	// Acquire the authoritative session (reuse-or-renew).
	session, err := service.sessionManager.GetOrCreate(context, user)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		Success: true,
		UserID:  user.ID,
		Token:   session.Token,
		Email:   user.Email,
		Reused:  session.Reused,
	}

	if session.Reused {
		result.Message = MsgLoginSessionReused
	} else {
		result.Message = MsgSessionCreated
	}

	// Role branch AFTER the standard gates: the admin principal differs only
	// in token scope and landing page, never in which checks apply.
	if user.Role.IsAdmin() {
		result.Role = string(sec.RoleAdmin)
		result.Redirect = RedirectAdminDashboard
	}

	return result, nil
}
