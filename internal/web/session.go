// Package web provides the HTTP server, JSON API and HTML pages for Musicanator.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/justestif/musicanator/internal/auth"
)

const (
	sessionCookieName   = "musicanator_session"
	handshakeCookieName = "musicanator_pkce"

	sessionTTL   = 7 * 24 * time.Hour
	handshakeTTL = 5 * time.Minute

	sessionAudience   = "musicanator-session"
	handshakeAudience = "musicanator-pkce"
)

// ErrMissingSecret is returned by NewSessions without a signing secret.
var ErrMissingSecret = errors.New("missing session secret")

// SessionConfig configures Sessions.
type SessionConfig struct {
	// Secret signs session and handshake cookies (HS256).
	Secret string
	// Secure marks cookies Secure; set when served over https.
	Secure bool
	Clock  clockwork.Clock
}

// Sessions issues and reads the signed cookies that carry the logged-in
// user and the in-flight Spotify PKCE handshake. Nothing is stored server
// side.
type Sessions struct {
	secret []byte
	secure bool
	clock  clockwork.Clock
}

// NewSessions creates a Sessions.
func NewSessions(cfg SessionConfig) (*Sessions, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Sessions{
		secret: []byte(cfg.Secret),
		secure: cfg.Secure,
		clock:  cfg.Clock,
	}, nil
}

// ============================================================================
// Session cookie
// ============================================================================

// Set logs userID in by setting the session cookie.
func (s *Sessions) Set(w http.ResponseWriter, userID string) error {
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
	token, err := s.sign(&claims, sessionAudience, sessionTTL)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}
	s.setCookie(w, sessionCookieName, token, sessionTTL)
	return nil
}

// UserID returns the user ID carried by the request's session cookie, or ""
// if there is no valid session.
func (s *Sessions) UserID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	var claims sessionClaims
	if err := s.parse(cookie.Value, &claims, sessionAudience); err != nil {
		return ""
	}
	return claims.Subject
}

// Clear removes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	s.clearCookie(w, sessionCookieName)
}

// ============================================================================
// PKCE handshake cookie
// ============================================================================

type sessionClaims struct {
	jwt.RegisteredClaims
}

type handshakeClaims struct {
	Verifier string `json:"verifier"`
	State    string `json:"state"`
	jwt.RegisteredClaims
}

// SetHandshake stores the verifier and state of hs for the callback.
func (s *Sessions) SetHandshake(w http.ResponseWriter, hs *auth.Handshake) error {
	claims := handshakeClaims{Verifier: hs.Verifier, State: hs.State}
	token, err := s.sign(&claims, handshakeAudience, handshakeTTL)
	if err != nil {
		return fmt.Errorf("signing handshake: %w", err)
	}
	s.setCookie(w, handshakeCookieName, token, handshakeTTL)
	return nil
}

// Handshake returns the stored handshake, or nil if it is missing, expired
// or tampered with.
func (s *Sessions) Handshake(r *http.Request) *auth.Handshake {
	cookie, err := r.Cookie(handshakeCookieName)
	if err != nil {
		return nil
	}
	var claims handshakeClaims
	if err := s.parse(cookie.Value, &claims, handshakeAudience); err != nil {
		return nil
	}
	return &auth.Handshake{
		Verifier:  claims.Verifier,
		Challenge: auth.DeriveChallenge(claims.Verifier),
		State:     claims.State,
	}
}

// ClearHandshake invalidates the handshake cookie.
func (s *Sessions) ClearHandshake(w http.ResponseWriter) {
	s.clearCookie(w, handshakeCookieName)
}

// ============================================================================
// Helpers
// ============================================================================

// signedClaims is implemented by the cookie claim types.
type signedClaims interface {
	jwt.Claims
	registered() *jwt.RegisteredClaims
}

func (c *sessionClaims) registered() *jwt.RegisteredClaims   { return &c.RegisteredClaims }
func (c *handshakeClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

func (s *Sessions) sign(claims signedClaims, audience string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	rc := claims.registered()
	rc.Audience = jwt.ClaimStrings{audience}
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	return err
}

func (s *Sessions) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (s *Sessions) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
