// Package auth implements the Spotify OAuth2 authorization code flow with PKCE:
// handshake generation, the authorization URL and the token endpoint calls.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/musicanator/internal/upstream"
)

const (
	serviceName    = "spotify-accounts"
	defaultTimeout = 15 * time.Second
)

// ErrMissingClientID is returned when no Spotify client ID is configured.
var ErrMissingClientID = errors.New("missing Spotify client ID")

// DefaultScopes are the permissions Musicanator asks for.
var DefaultScopes = []string{
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopeUserReadPrivate,
}

// Config configures an Authenticator. Empty endpoint URLs default to the
// Spotify accounts service.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Authenticator talks to the Spotify accounts service.
type Authenticator struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// New creates an Authenticator.
// Returns ErrMissingClientID if cfg.ClientID is empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = spotifyauth.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = spotifyauth.TokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// PKCE public clients identify themselves in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// AuthorizationURL builds the URL the browser is sent to. No network call is made.
func (a *Authenticator) AuthorizationURL(challenge, state string) string {
	return a.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	)
}

// Exchange trades an authorization code and its verifier for a token.
func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := a.oauth.Exchange(a.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, upstream.Wrap(serviceName, "token exchange", retrieveStatus(err), err)
	}
	return tok, nil
}

// Refresh exchanges a refresh token for a new access token. When Spotify does
// not rotate the refresh token, the returned token carries the one passed in.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := a.oauth.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, upstream.Wrap(serviceName, "token refresh", retrieveStatus(err), err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func retrieveStatus(err error) int {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}
