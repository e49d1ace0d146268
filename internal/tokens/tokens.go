// Package tokens keeps each user's Spotify credential valid, refreshing it
// through the token endpoint when it has expired.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

var (
	// ErrUnauthenticated is returned when there is no signed-in user.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrNotLinked is returned when the user has never connected Spotify.
	ErrNotLinked = errors.New("spotify not connected")

	// ErrReauthRequired is returned when the credential expired and cannot be refreshed.
	ErrReauthRequired = errors.New("spotify token expired, reconnect needed")
)

// Credential is a user's Spotify access/refresh token pair.
type Credential struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the instant from which AccessToken must be treated as invalid.
	ExpiresAt time.Time
}

// Expired reports whether the access token is no longer valid at now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Store persists credentials keyed by user ID.
type Store interface {
	// LoadCredential returns (nil, nil) when the user has no credential.
	LoadCredential(ctx context.Context, userID string) (*Credential, error)
	// SaveCredential replaces the user's credential.
	SaveCredential(ctx context.Context, userID string, cred *Credential) error
}

// Refresher exchanges a refresh token at the token endpoint.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store     Store
	Refresher Refresher
	// Clock defaults to the real clock.
	Clock  clockwork.Clock
	Logger *log.Logger
}

// Manager hands out valid access tokens.
type Manager struct {
	store     Store
	refresher Refresher
	clock     clockwork.Clock
	log       *log.Logger
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Manager{
		store:     cfg.Store,
		refresher: cfg.Refresher,
		clock:     cfg.Clock,
		log:       cfg.Logger.With("component", "tokens"),
	}
}

// WithValidToken runs op with an access token that is valid now, refreshing
// and persisting the user's credential first if it has expired. Errors from op
// are returned unchanged; nothing is retried.
func (m *Manager) WithValidToken(ctx context.Context, userID string, op func(ctx context.Context, accessToken string) error) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	cred, err := m.store.LoadCredential(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading credential: %w", err)
	}
	if cred == nil {
		return ErrNotLinked
	}

	if cred.Expired(m.clock.Now()) {
		cred, err = m.refresh(ctx, userID, cred)
		if err != nil {
			return err
		}
	}

	return op(ctx, cred.AccessToken)
}

func (m *Manager) refresh(ctx context.Context, userID string, cred *Credential) (*Credential, error) {
	if cred.RefreshToken == "" {
		return nil, ErrReauthRequired
	}

	// Refresh errors already name the service and operation.
	tok, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	next := FromToken(m.clock.Now(), tok, cred.RefreshToken)
	if err := m.store.SaveCredential(ctx, userID, next); err != nil {
		return nil, fmt.Errorf("saving refreshed credential: %w", err)
	}

	m.log.Debug("refreshed spotify token", "user", userID, "expires_at", next.ExpiresAt)
	return next, nil
}

// Link stores the credential obtained from the authorization code exchange.
func (m *Manager) Link(ctx context.Context, userID string, tok *oauth2.Token) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := m.store.SaveCredential(ctx, userID, FromToken(m.clock.Now(), tok, "")); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Linked reports whether the user has a stored credential.
func (m *Manager) Linked(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	cred, err := m.store.LoadCredential(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading credential: %w", err)
	}
	return cred != nil, nil
}

// FromToken converts a token endpoint response into a Credential. The expiry
// is now plus the returned lifetime in seconds. priorRefresh is kept when the
// response carries no refresh token.
func FromToken(now time.Time, tok *oauth2.Token, priorRefresh string) *Credential {
	cred := &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = priorRefresh
	}

	switch {
	case tok.ExpiresIn > 0:
		cred.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		cred.ExpiresAt = tok.Expiry
	default:
		// Unknown lifetime: treat as already expired so the next use refreshes.
		cred.ExpiresAt = now
	}
	return cred
}
