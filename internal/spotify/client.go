// Package spotify maps Musicanator's catalog operations onto the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/musicanator/internal/upstream"
)

const (
	serviceName    = "spotify"
	defaultTimeout = 15 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL overrides the Web API root, e.g. "http://127.0.0.1:4000/".
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
}

// Client calls the Spotify Web API on behalf of whichever user's access token
// it is given. It holds no per-user state and is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a new Spotify client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{baseURL: cfg.BaseURL, timeout: cfg.Timeout}
}

// api returns a Spotify API client authenticated with token.
func (c *Client) api(token string) *spotify.Client {
	httpClient := &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		},
	}

	var opts []spotify.ClientOption
	if c.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(c.baseURL))
	}
	return spotify.New(httpClient, opts...)
}

// Profile returns the current user's Spotify account.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	user, err := c.api(token).CurrentUser(ctx)
	if err != nil {
		return nil, wrapErr("get profile", err)
	}
	return &Profile{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// wrapErr converts a Spotify API failure into an upstream error, keeping the
// HTTP status when the response body carried one.
func wrapErr(op string, err error) error {
	status := 0
	var se spotify.Error
	if errors.As(err, &se) {
		status = se.Status
	}
	return upstream.Wrap(serviceName, op, status, err)
}
