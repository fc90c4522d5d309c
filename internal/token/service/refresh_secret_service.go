package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/authcore/internal/errors"
)

// refreshSecretService implements RefreshSecretService using Argon2id hashing.
type refreshSecretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecret creates a new cryptographically secure 48-byte random secret.
// The secret is base64 URL-encoded to a 64-character string for transmission.
func (s *refreshSecretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	// Generate 48 random bytes (384 bits)
	randomBytes := make([]byte, 48)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	// Encode to base64 URL-safe string for text representation
	plainSecret = base64.URLEncoding.EncodeToString(randomBytes)

	// Hash the secret
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to hash secret")
	}

	return plainSecret, hashedSecret, nil
}

// CompareSecret performs a constant-time comparison between a plain secret and its hash.
func (s *refreshSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewRefreshSecretService creates a new RefreshSecretService instance using
// Argon2id hashing. Uses the Moderate policy for a balance between security
// and performance.
func NewRefreshSecretService() RefreshSecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &refreshSecretService{
		hasher: hasher,
	}
}
