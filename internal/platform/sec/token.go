// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// otpDigits is the alphabet used for one-time verification codes.
const otpDigits = "0123456789"

// GenerateOTP produces a numeric one-time code of the requested length
// using the OS CSPRNG. A 4-digit code matches the verification email format.
func GenerateOTP(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(otpDigits)))

	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("auth: failed to generate OTP: %w", err)
		}
		code[i] = otpDigits[n.Int64()]
	}

	return string(code), nil
}

// GenerateSecureToken returns a URL-safe random string of the given byte length.
// Used for OAuth state nonces.
func GenerateSecureToken(byteLength int) (string, error) {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
