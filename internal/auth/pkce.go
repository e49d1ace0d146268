package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// verifierBytes is the amount of randomness behind a code verifier. Encoded
// it yields 86 characters, inside the 43..128 range PKCE allows.
const verifierBytes = 64

var (
	// ErrMissingHandshake is returned when the callback arrives without a stored
	// verifier and state. The flow must be restarted.
	ErrMissingHandshake = errors.New("OAuth handshake not found")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Handshake is the per-login PKCE material. It lives only between the
// authorization redirect and the callback.
type Handshake struct {
	Verifier  string
	Challenge string
	State     string
}

// NewHandshake generates a fresh verifier, its challenge and a state token.
func NewHandshake() (*Handshake, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	return &Handshake{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		State:     GenerateState(),
	}, nil
}

// GenerateVerifier returns a random, URL-safe PKCE code verifier.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeriveChallenge returns the S256 code challenge for verifier.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns a random opaque state token.
func GenerateState() string {
	return uuid.NewString()
}

// ValidateState checks the state returned on the callback against the stored
// handshake. Any failure is terminal for the attempt.
func ValidateState(stored *Handshake, returned string) error {
	if stored == nil || stored.Verifier == "" || stored.State == "" {
		return ErrMissingHandshake
	}
	if returned == "" || subtle.ConstantTimeCompare([]byte(stored.State), []byte(returned)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
