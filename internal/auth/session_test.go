// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/paperchat/internal/auth"
	"github.com/taibuivan/paperchat/internal/platform/sec"
)

func memberAlice() *auth.User {
	return &auth.User{ID: 7, Email: "alice@x.com", Role: sec.RoleMember}
}

/*
TestSessionManager_CreatesWhenAbsent verifies that a user with no stored
session receives a freshly minted token.
*/
func TestSessionManager_CreatesWhenAbsent(t *testing.T) {
	sessions := newFakeSessionRepository()
	manager := auth.NewSessionManager(sessions, &fakeSigner{prefix: "user"}, &fakeSigner{prefix: "admin"})

	result, err := manager.GetOrCreate(context.Background(), memberAlice())

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.False(t, result.Reused)
	assert.Equal(t, auth.MsgSessionCreated, result.Message())
	assert.Contains(t, result.Token, "user-token-7-")

	stored := sessions.sessionsByUser[7]
	require.NotNil(t, stored)
	assert.Equal(t, result.Token, stored.Token)
	assert.True(t, stored.IsLive(time.Now()))
}

/*
TestSessionManager_ReusesLiveToken verifies verbatim reuse: two consecutive
acquisitions yield the identical token and no extra signing.
*/
func TestSessionManager_ReusesLiveToken(t *testing.T) {
	sessions := newFakeSessionRepository()
	signer := &fakeSigner{prefix: "user"}
	manager := auth.NewSessionManager(sessions, signer, &fakeSigner{prefix: "admin"})

	first, err := manager.GetOrCreate(context.Background(), memberAlice())
	require.NoError(t, err)

	second, err := manager.GetOrCreate(context.Background(), memberAlice())
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.True(t, second.Reused)
	assert.Equal(t, auth.MsgSessionReused, second.Message())
	assert.Equal(t, 1, signer.counter)
}

/*
TestSessionManager_RenewsExpiredToken verifies lazy cleanup and renewal: an
expired stored row is removed and a different token replaces it.
*/
func TestSessionManager_RenewsExpiredToken(t *testing.T) {
	sessions := newFakeSessionRepository()
	manager := auth.NewSessionManager(sessions, &fakeSigner{prefix: "user"}, &fakeSigner{prefix: "admin"})

	sessions.sessionsByUser[7] = &auth.Session{
		ID:        1,
		UserID:    7,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	result, err := manager.GetOrCreate(context.Background(), memberAlice())

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotEqual(t, "stale-token", result.Token)

	stored := sessions.sessionsByUser[7]
	require.NotNil(t, stored)
	assert.Equal(t, result.Token, stored.Token)
}

/*
TestSessionManager_RaceLoserGetsWinnerToken verifies the concurrent-login
outcome: when another login installs a live session between lookup and write,
the caller receives the winner's token reported as reused.
*/
func TestSessionManager_RaceLoserGetsWinnerToken(t *testing.T) {
	sessions := &racingSessionRepository{inner: newFakeSessionRepository()}
	manager := auth.NewSessionManager(sessions, &fakeSigner{prefix: "user"}, &fakeSigner{prefix: "admin"})

	result, err := manager.GetOrCreate(context.Background(), memberAlice())

	require.NoError(t, err)
	assert.True(t, result.Reused)
	assert.False(t, result.Created)
	assert.Equal(t, "winner-token", result.Token)
}

/*
TestSessionManager_AdminUsesAdminSigner verifies signer selection by role.
*/
func TestSessionManager_AdminUsesAdminSigner(t *testing.T) {
	sessions := newFakeSessionRepository()
	userSigner := &fakeSigner{prefix: "user"}
	adminSigner := &fakeSigner{prefix: "admin"}
	manager := auth.NewSessionManager(sessions, userSigner, adminSigner)

	result, err := manager.GetOrCreate(context.Background(), &auth.User{
		ID:    9,
		Email: "root@x.com",
		Role:  sec.RoleAdmin,
	})

	require.NoError(t, err)
	assert.Contains(t, result.Token, "admin-token-9-")
	assert.Equal(t, 0, userSigner.counter)
	assert.Equal(t, 1, adminSigner.counter)
}

// racingSessionRepository simulates a concurrent login that lands its row
// between the manager's lookup and its upsert.
type racingSessionRepository struct {
	inner *fakeSessionRepository
}

func (repository *racingSessionRepository) FindByUserID(context context.Context, userID int64) (*auth.Session, error) {
	return repository.inner.FindByUserID(context, userID)
}

func (repository *racingSessionRepository) Upsert(context context.Context, candidate *auth.Session) (*auth.Session, bool, error) {
	return &auth.Session{
		ID:        99,
		UserID:    candidate.UserID,
		Token:     "winner-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, false, nil
}

func (repository *racingSessionRepository) DeleteExpired(context context.Context, userID int64) error {
	return repository.inner.DeleteExpired(context, userID)
}
