// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/paperchat/internal/platform/sec"
)

/*
TestGenerateOTP verifies shape: exactly the requested number of digits.
*/
func TestGenerateOTP(t *testing.T) {
	numeric := regexp.MustCompile(`^\d+$`)

	for _, length := range []int{4, 6} {
		otp, err := sec.GenerateOTP(length)
		require.NoError(t, err)
		assert.Len(t, otp, length)
		assert.Regexp(t, numeric, otp)
	}
}

/*
TestGenerateSecureToken verifies URL safety and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
	assert.NotContains(t, first, "=")
}

/*
TestTokenService_RoundTrip verifies that signed claims survive verification
and that a foreign-secret token is rejected.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := sec.NewTokenService("secret-a", "test")

	token, err := service.Sign(42, "alice@x.com", "member", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "member", claims.Role)

	other := sec.NewTokenService("secret-b", "test")
	_, err = other.VerifyToken(token)
	require.Error(t, err)
}
