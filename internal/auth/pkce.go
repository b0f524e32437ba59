package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// VerifierLength is the number of characters in a generated code verifier.
	VerifierLength = 128

	verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewVerifier returns a random code verifier drawn from the unreserved alphanumeric alphabet.
func NewVerifier() (string, error) {
	buf := make([]byte, VerifierLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// Bytes at or above 248 (4*62) are rejected so every character is equally likely.
	out := make([]byte, 0, VerifierLength)
	for len(out) < VerifierLength {
		for _, b := range buf {
			if b >= 248 {
				continue
			}
			out = append(out, verifierAlphabet[int(b)%len(verifierAlphabet)])
			if len(out) == VerifierLength {
				break
			}
		}
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
	}
	return string(out), nil
}

// Challenge derives the S256 code challenge: unpadded base64url of the verifier's SHA-256.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
