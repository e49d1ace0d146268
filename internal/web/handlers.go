package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/justestif/musicanator/internal/accounts"
	"github.com/justestif/musicanator/internal/auth"
	"github.com/justestif/musicanator/internal/history"
	"github.com/justestif/musicanator/internal/playlists"
	"github.com/justestif/musicanator/internal/spotify"
	"github.com/justestif/musicanator/internal/tokens"
)

// Accounts signs users up and in.
type Accounts interface {
	Signup(ctx context.Context, username, password string) (*accounts.User, error)
	Login(ctx context.Context, username, password string) (*accounts.User, error)
	Get(ctx context.Context, id string) (*accounts.User, error)
}

// Authorizer runs the Spotify side of the PKCE flow.
type Authorizer interface {
	AuthorizationURL(challenge, state string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
}

// Linker stores and reports a user's Spotify link.
type Linker interface {
	Link(ctx context.Context, userID string, tok *oauth2.Token) error
	Linked(ctx context.Context, userID string) (bool, error)
}

// Profiles fetches the Spotify profile behind an access token.
type Profiles interface {
	Profile(ctx context.Context, token string) (*spotify.Profile, error)
}

// PlaylistBuilder builds playlists from a concept.
type PlaylistBuilder interface {
	Build(ctx context.Context, userID, concept string) (*playlists.Result, error)
}

// HistoryLister lists a user's playlists.
type HistoryLister interface {
	List(ctx context.Context, userID string) ([]history.Entry, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	sessions  *Sessions
	templates *Templates
	accounts  Accounts
	oauth     Authorizer
	links     Linker
	profiles  Profiles
	builder   PlaylistBuilder
	history   HistoryLister
	health    Pinger
	log       *log.Logger
}

// credentialsRequest is the body of signup and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createPlaylistRequest struct {
	Concept string `json:"concept"`
}

type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	SpotifyLinked bool   `json:"spotifyLinked"`
}

// ============================================================================
// Pages
// ============================================================================

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	linked, err := h.links.Linked(r.Context(), user.ID)
	if err != nil {
		h.log.Error("checking spotify link", "user", user.ID, "err", err)
	}
	entries, err := h.history.List(r.Context(), user.ID)
	if err != nil {
		h.log.Error("listing playlist history", "user", user.ID, "err", err)
	}

	h.render(w, "home", HomePageData{
		PageData: PageData{
			Title:       "Musicanator",
			CurrentPath: r.URL.Path,
			User:        &UserData{ID: user.ID, Name: user.Username},
		},
		SpotifyLinked: linked,
		History:       entries,
	})
}

// LoginPage handles the login and signup page (GET /login).
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login", PageData{
		Title:       "Log in - Musicanator",
		CurrentPath: r.URL.Path,
	})
}

func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.log.Error("rendering template", "page", page, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// ============================================================================
// Accounts API
// ============================================================================

// Signup creates an account and logs it in (POST /api/auth/signup).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.startSession(w, user)
}

// Login logs an existing account in (POST /api/auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.startSession(w, user)
}

func (h *Handlers) startSession(w http.ResponseWriter, user *accounts.User) {
	if err := h.sessions.Set(w, user.ID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Logout clears the session (POST /api/auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me reports the current session (GET /api/auth/me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		writeJSON(w, http.StatusOK, meResponse{Authenticated: false})
		return
	}

	linked, err := h.links.Linked(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		Authenticated: true,
		Username:      user.Username,
		SpotifyLinked: linked,
	})
}

// currentUser resolves the session to an account. A session whose account no
// longer exists is cleared and treated as logged out.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) *accounts.User {
	id := h.sessions.UserID(r)
	if id == "" {
		return nil
	}

	user, err := h.accounts.Get(r.Context(), id)
	if errors.Is(err, accounts.ErrNotFound) {
		h.log.Info("clearing session for missing account", "user", id)
		h.sessions.Clear(w)
		return nil
	}
	if err != nil {
		h.log.Error("loading session user", "user", id, "err", err)
		return nil
	}
	return user
}

// ============================================================================
// Spotify OAuth
// ============================================================================

// SpotifyLogin starts the PKCE flow (GET /api/spotify/login).
func (h *Handlers) SpotifyLogin(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(w, r) == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	hs, err := auth.NewHandshake()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.sessions.SetHandshake(w, hs); err != nil {
		h.writeError(w, err)
		return
	}

	http.Redirect(w, r, h.oauth.AuthorizationURL(hs.Challenge, hs.State), http.StatusSeeOther)
}

// SpotifyCallback completes the PKCE flow (GET /api/spotify/callback). The
// handshake cookie is consumed whatever the outcome.
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	stored := h.sessions.Handshake(r)
	h.sessions.ClearHandshake(w)

	if stored == nil {
		http.Redirect(w, r, "/api/spotify/login", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Spotify authorization failed: " + providerErr})
		return
	}
	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: auth.ErrStateMismatch.Error()})
		return
	}
	if err := auth.ValidateState(stored, q.Get("state")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), code, stored.Verifier)
	if err != nil {
		h.log.Error("exchanging authorization code", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	user := h.currentUser(w, r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	profile, err := h.profiles.Profile(r.Context(), tok.AccessToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.links.Link(r.Context(), user.ID, tok); err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("spotify linked", "user", user.ID, "spotify_user", profile.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ============================================================================
// Playlists API
// ============================================================================

// CreatePlaylist builds a playlist for the posted concept (POST /api/playlist/create).
// A missing concept is reported before a missing or stale session.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Concept) == "" {
		h.writeError(w, playlists.ErrMissingConcept)
		return
	}

	user := h.currentUser(w, r)
	if user == nil {
		h.writeError(w, tokens.ErrUnauthenticated)
		return
	}

	result, err := h.builder.Build(r.Context(), user.ID, req.Concept)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "playlist": result.URL})
}

// PlaylistHistory lists the user's recent playlists (GET /api/playlist/history).
func (h *Handlers) PlaylistHistory(w http.ResponseWriter, r *http.Request) {
	entries := []history.Entry{}
	if user := h.currentUser(w, r); user != nil {
		var err error
		entries, err = h.history.List(r.Context(), user.ID)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": entries})
}

// Health reports whether the store is reachable (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.log.Error("health check failed", "err", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
