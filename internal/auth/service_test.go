// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/paperchat/internal/auth"
	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

// # In-Memory Fakes

type fakeUserRepository struct {
	usersByEmail map[string]*auth.User
	nextID       int64
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{usersByEmail: map[string]*auth.User{}, nextID: 1}
}

func (repository *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if user, found := repository.usersByEmail[email]; found {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repository *fakeUserRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	for _, user := range repository.usersByEmail {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	if _, found := repository.usersByEmail[user.Email]; found {
		return apperr.Conflict(auth.MsgAlreadyRegistered)
	}
	user.ID = repository.nextID
	repository.nextID++
	user.CreatedAt = time.Now()
	clone := *user
	repository.usersByEmail[user.Email] = &clone
	return nil
}

func (repository *fakeUserRepository) MarkVerified(_ context.Context, email string) error {
	if user, found := repository.usersByEmail[email]; found {
		user.IsVerified = true
	}
	return nil
}

type fakeVerificationRepository struct {
	otpByEmail map[string]string
}

func newFakeVerificationRepository() *fakeVerificationRepository {
	return &fakeVerificationRepository{otpByEmail: map[string]string{}}
}

func (repository *fakeVerificationRepository) Create(_ context.Context, record *auth.VerificationRecord) error {
	repository.otpByEmail[record.Email] = record.OTP
	return nil
}

func (repository *fakeVerificationRepository) FindMatch(_ context.Context, email, otp string) (*auth.VerificationRecord, error) {
	if stored, found := repository.otpByEmail[email]; found && stored == otp {
		return &auth.VerificationRecord{Email: email, OTP: otp}, nil
	}
	return nil, apperr.New("NOT_FOUND", auth.MsgInvalidOTP, 400)
}

func (repository *fakeVerificationRepository) Delete(_ context.Context, email string) error {
	delete(repository.otpByEmail, email)
	return nil
}

type fakeSessionRepository struct {
	sessionsByUser map[int64]*auth.Session
	nextID         int64
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessionsByUser: map[int64]*auth.Session{}, nextID: 1}
}

func (repository *fakeSessionRepository) FindByUserID(_ context.Context, userID int64) (*auth.Session, error) {
	if session, found := repository.sessionsByUser[userID]; found {
		clone := *session
		return &clone, nil
	}
	return nil, apperr.NotFound("Session")
}

func (repository *fakeSessionRepository) Upsert(_ context.Context, candidate *auth.Session) (*auth.Session, bool, error) {
	if stored, found := repository.sessionsByUser[candidate.UserID]; found && stored.IsLive(time.Now()) {
		clone := *stored
		return &clone, false, nil
	}

	candidate.ID = repository.nextID
	repository.nextID++
	clone := *candidate
	repository.sessionsByUser[candidate.UserID] = &clone
	return candidate, true, nil
}

func (repository *fakeSessionRepository) DeleteExpired(_ context.Context, userID int64) error {
	if session, found := repository.sessionsByUser[userID]; found && !session.IsLive(time.Now()) {
		delete(repository.sessionsByUser, userID)
	}
	return nil
}

// fakeSigner mints deterministic, distinguishable tokens.
type fakeSigner struct {
	prefix  string
	counter int
}

func (signer *fakeSigner) Sign(userID int64, email, role string, _ time.Duration) (string, error) {
	signer.counter++
	return fmt.Sprintf("%s-token-%d-%d", signer.prefix, userID, signer.counter), nil
}

type fakeMailSender struct {
	sent []string
	fail bool
}

func (sender *fakeMailSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if sender.fail {
		return errors.New("smtp unreachable")
	}
	sender.sent = append(sender.sent, to)
	return nil
}

// # Test Fixture

type serviceFixture struct {
	users    *fakeUserRepository
	otps     *fakeVerificationRepository
	sessions *fakeSessionRepository
	mail     *fakeMailSender
	service  *auth.Service
	manager  *auth.SessionManager
}

func newServiceFixture() *serviceFixture {
	users := newFakeUserRepository()
	otps := newFakeVerificationRepository()
	sessions := newFakeSessionRepository()
	mail := &fakeMailSender{}

	manager := auth.NewSessionManager(sessions,
		&fakeSigner{prefix: "user"},
		&fakeSigner{prefix: "admin"},
	)

	return &serviceFixture{
		users:    users,
		otps:     otps,
		sessions: sessions,
		mail:     mail,
		service:  auth.NewService(users, otps, manager, mail),
		manager:  manager,
	}
}

func (fixture *serviceFixture) signUpAlice(t *testing.T) {
	t.Helper()
	_, err := fixture.service.SignUp(context.Background(), auth.SignUpInput{
		Username: "alice",
		Password: "Abcdef1!",
		Email:    "alice@x.com",
		AuthType: auth.AuthTypeCredentials,
	})
	require.NoError(t, err)
}

func (fixture *serviceFixture) verifiedAlice(t *testing.T) {
	t.Helper()
	fixture.signUpAlice(t)
	otp := fixture.otps.otpByEmail["alice@x.com"]
	require.NoError(t, fixture.service.VerifyEmail(context.Background(), "alice@x.com", otp))
}

// # Signup

/*
TestService_SignUp_Success verifies the happy enrollment path.
*/
func TestService_SignUp_Success(t *testing.T) {
	fixture := newServiceFixture()

	result, err := fixture.service.SignUp(context.Background(), auth.SignUpInput{
		Username: "alice",
		Password: "Abcdef1!",
		Email:    "alice@x.com",
		AuthType: auth.AuthTypeCredentials,
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", result.Email)
	assert.Equal(t, auth.RedirectVerify, result.Redirect)

	// The stored account is unverified, credential-typed, member-roled.
	stored := fixture.users.usersByEmail["alice@x.com"]
	require.NotNil(t, stored)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, auth.AuthTypeCredentials, stored.AuthType)
	assert.Equal(t, sec.RoleMember, stored.Role)

	// Password is hashed, never stored verbatim.
	assert.NotEqual(t, "Abcdef1!", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("Abcdef1!", stored.PasswordHash))

	// A 4-digit numeric OTP was recorded and mailed.
	otp := fixture.otps.otpByEmail["alice@x.com"]
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), otp)
	assert.Equal(t, []string{"alice@x.com"}, fixture.mail.sent)
}

/*
TestService_SignUp_DuplicateEmail verifies the conflict rule regardless of username.
*/
func TestService_SignUp_DuplicateEmail(t *testing.T) {
	fixture := newServiceFixture()
	fixture.signUpAlice(t)

	_, err := fixture.service.SignUp(context.Background(), auth.SignUpInput{
		Username: "different",
		Password: "Abcdef1!",
		Email:    "alice@x.com",
		AuthType: auth.AuthTypeCredentials,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
	assert.Equal(t, 400, ae.HTTPStatus)
}

/*
TestService_SignUp_MailFailureIsNotFatal verifies best-effort email dispatch.
*/
func TestService_SignUp_MailFailureIsNotFatal(t *testing.T) {
	fixture := newServiceFixture()
	fixture.mail.fail = true

	result, err := fixture.service.SignUp(context.Background(), auth.SignUpInput{
		Username: "alice",
		Password: "Abcdef1!",
		Email:    "alice@x.com",
		AuthType: auth.AuthTypeCredentials,
	})

	// The user and the OTP row exist even though the email never went out.
	require.NoError(t, err)
	assert.Equal(t, auth.RedirectVerify, result.Redirect)
	assert.NotEmpty(t, fixture.otps.otpByEmail["alice@x.com"])
}

// # Email Verification

/*
TestService_VerifyEmail verifies flag flipping and OTP consumption.
*/
func TestService_VerifyEmail(t *testing.T) {
	fixture := newServiceFixture()
	fixture.signUpAlice(t)
	otp := fixture.otps.otpByEmail["alice@x.com"]

	// Wrong OTP never flips the flag.
	wrong := "0000"
	if wrong == otp {
		wrong = "1111"
	}
	err := fixture.service.VerifyEmail(context.Background(), "alice@x.com", wrong)
	require.Error(t, err)
	assert.False(t, fixture.users.usersByEmail["alice@x.com"].IsVerified)

	// Correct OTP flips it exactly once.
	require.NoError(t, fixture.service.VerifyEmail(context.Background(), "alice@x.com", otp))
	assert.True(t, fixture.users.usersByEmail["alice@x.com"].IsVerified)

	// The record was consumed: replaying the same OTP now fails.
	err = fixture.service.VerifyEmail(context.Background(), "alice@x.com", otp)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
	assert.Equal(t, 400, ae.HTTPStatus)
}

// # Sign-In

/*
TestService_SignIn_UnknownEmail verifies the registration hint.
*/
func TestService_SignIn_UnknownEmail(t *testing.T) {
	fixture := newServiceFixture()

	_, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "ghost@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeCredentials,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INVALID_CREDENTIALS", ae.Code)
	assert.Equal(t, 400, ae.HTTPStatus)
}

/*
TestService_SignIn_WrongPassword verifies rejection without session creation.
*/
func TestService_SignIn_WrongPassword(t *testing.T) {
	fixture := newServiceFixture()
	fixture.verifiedAlice(t)

	_, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "alice@x.com",
		Password: "WrongPass1!",
		AuthType: auth.AuthTypeCredentials,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INVALID_CREDENTIALS", ae.Code)
	assert.Empty(t, fixture.sessions.sessionsByUser)
}

/*
TestService_SignIn_WrongAuthTypeArgument verifies the request-side method gate.
*/
func TestService_SignIn_WrongAuthTypeArgument(t *testing.T) {
	fixture := newServiceFixture()
	fixture.verifiedAlice(t)

	_, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "alice@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeOAuth,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

/*
TestService_SignIn_OAuthAccount verifies that an OAuth account cannot use
credential login and is pointed back at its provider.
*/
func TestService_SignIn_OAuthAccount(t *testing.T) {
	fixture := newServiceFixture()
	require.NoError(t, fixture.users.Create(context.Background(), &auth.User{
		Username:   "bob",
		Email:      "bob@x.com",
		IsVerified: true,
		AuthType:   auth.AuthTypeOAuth,
		Role:       sec.RoleMember,
	}))

	_, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "bob@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeCredentials,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
	assert.Equal(t, auth.RedirectGoogleSignIn, ae.Redirect)
}

/*
TestService_SignIn_Unverified verifies the re-verification hint.
*/
func TestService_SignIn_Unverified(t *testing.T) {
	fixture := newServiceFixture()
	fixture.signUpAlice(t)

	_, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "alice@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeCredentials,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
	assert.Equal(t, auth.RedirectVerify, ae.Redirect)
}

/*
TestService_SignIn_SessionReuse verifies the full reuse scenario: a fresh
token on the first sign-in, the identical token on the second.
*/
func TestService_SignIn_SessionReuse(t *testing.T) {
	fixture := newServiceFixture()
	fixture.verifiedAlice(t)

	first, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "alice@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeCredentials,
	})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, auth.MsgSessionCreated, first.Message)
	assert.NotEmpty(t, first.Token)

	second, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "alice@x.com",
		Password: "Abcdef1!",
		AuthType: auth.AuthTypeCredentials,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, auth.MsgLoginSessionReused, second.Message)
}

/*
TestService_SignIn_AdminRole verifies that an admin passes the same gates but
receives an admin-scoped token and the dashboard redirect.
*/
func TestService_SignIn_AdminRole(t *testing.T) {
	fixture := newServiceFixture()

	hash, err := sec.HashPassword("Admin1!pass")
	require.NoError(t, err)
	require.NoError(t, fixture.users.Create(context.Background(), &auth.User{
		Username:     "root",
		Email:        "root@x.com",
		PasswordHash: hash,
		IsVerified:   true,
		AuthType:     auth.AuthTypeCredentials,
		Role:         sec.RoleAdmin,
	}))

	result, err := fixture.service.SignIn(context.Background(), auth.SignInInput{
		Email:    "root@x.com",
		Password: "Admin1!pass",
		AuthType: auth.AuthTypeCredentials,
	})

	require.NoError(t, err)
	assert.Equal(t, string(sec.RoleAdmin), result.Role)
	assert.Equal(t, auth.RedirectAdminDashboard, result.Redirect)

	// The admin signer minted the token, not the user signer.
	assert.Contains(t, result.Token, "admin-token-")
}
