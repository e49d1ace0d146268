package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/justestif/musicanator/internal/upstream"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateVerifier(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		v, err := GenerateVerifier()
		if err != nil {
			t.Fatalf("GenerateVerifier() error = %v", err)
		}
		if len(v) != 86 {
			t.Errorf("len(verifier) = %d, want 86", len(v))
		}
		if !urlSafe.MatchString(v) {
			t.Errorf("verifier %q is not URL-safe", v)
		}
		if seen[v] {
			t.Errorf("GenerateVerifier() repeated %q", v)
		}
		seen[v] = true
	}
}

func TestDeriveChallenge(t *testing.T) {
	// RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := DeriveChallenge(verifier); got != want {
		t.Errorf("DeriveChallenge() = %q, want %q", got, want)
	}

	for i := 0; i < 10; i++ {
		v, err := GenerateVerifier()
		if err != nil {
			t.Fatalf("GenerateVerifier() error = %v", err)
		}
		first, second := DeriveChallenge(v), DeriveChallenge(v)
		if first != second {
			t.Errorf("DeriveChallenge not deterministic: %q != %q", first, second)
		}
		if first != oauth2.S256ChallengeFromVerifier(v) {
			t.Errorf("DeriveChallenge(%q) disagrees with oauth2.S256ChallengeFromVerifier", v)
		}
	}
}

func TestNewHandshake(t *testing.T) {
	hs, err := NewHandshake()
	if err != nil {
		t.Fatalf("NewHandshake() error = %v", err)
	}
	if hs.Challenge != DeriveChallenge(hs.Verifier) {
		t.Error("Challenge does not match Verifier")
	}
	if hs.State == "" {
		t.Error("State is empty")
	}

	other, err := NewHandshake()
	if err != nil {
		t.Fatalf("NewHandshake() error = %v", err)
	}
	if other.State == hs.State || other.Verifier == hs.Verifier {
		t.Error("two handshakes share state or verifier")
	}
}

func TestValidateState(t *testing.T) {
	stored := &Handshake{Verifier: "verifier", Challenge: "challenge", State: "state-123"}

	tests := []struct {
		name     string
		stored   *Handshake
		returned string
		wantErr  error
	}{
		{name: "match", stored: stored, returned: "state-123", wantErr: nil},
		{name: "mismatch", stored: stored, returned: "state-456", wantErr: ErrStateMismatch},
		{name: "prefix is not a match", stored: stored, returned: "state-12", wantErr: ErrStateMismatch},
		{name: "empty returned state", stored: stored, returned: "", wantErr: ErrStateMismatch},
		{name: "no stored handshake", stored: nil, returned: "state-123", wantErr: ErrMissingHandshake},
		{name: "stored without verifier", stored: &Handshake{State: "state-123"}, returned: "state-123", wantErr: ErrMissingHandshake},
		{name: "stored without state", stored: &Handshake{Verifier: "v"}, returned: "", wantErr: ErrMissingHandshake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateState(tt.stored, tt.returned)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateState() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_MissingClientID(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("New() error = %v, want %v", err, ErrMissingClientID)
	}
}

func TestAuthorizationURL(t *testing.T) {
	a, err := New(Config{
		ClientID:    "client-abc",
		RedirectURL: "http://127.0.0.1:8080/api/spotify/callback",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	raw := a.AuthorizationURL("the-challenge", "the-state")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}

	if got := u.Scheme + "://" + u.Host + u.Path; got != "https://accounts.spotify.com/authorize" {
		t.Errorf("endpoint = %q", got)
	}

	q := u.Query()
	want := map[string]string{
		"client_id":             "client-abc",
		"response_type":         "code",
		"redirect_uri":          "http://127.0.0.1:8080/api/spotify/callback",
		"code_challenge_method": "S256",
		"code_challenge":        "the-challenge",
		"state":                 "the-state",
		"scope":                 "playlist-modify-private playlist-modify-public playlist-read-private user-read-private",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
		}
	}
}

// tokenServer answers token requests with resp and records the last form.
func tokenServer(t *testing.T, status int, resp map[string]any, form *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if form != nil {
			*form = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthenticator(t *testing.T, tokenURL string) *Authenticator {
	t.Helper()
	a, err := New(Config{
		ClientID:    "client-abc",
		RedirectURL: "http://127.0.0.1:8080/api/spotify/callback",
		TokenURL:    tokenURL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestExchange(t *testing.T) {
	var form url.Values
	srv := tokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"token_type":    "Bearer",
		"expires_in":    3600,
	}, &form)

	a := newTestAuthenticator(t, srv.URL)
	tok, err := a.Exchange(context.Background(), "auth-code", "my-verifier")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
		t.Errorf("token = %+v", tok)
	}
	if tok.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", tok.ExpiresIn)
	}

	wantForm := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "auth-code",
		"code_verifier": "my-verifier",
		"client_id":     "client-abc",
		"redirect_uri":  "http://127.0.0.1:8080/api/spotify/callback",
	}
	for k, v := range wantForm {
		if form.Get(k) != v {
			t.Errorf("form %s = %q, want %q", k, form.Get(k), v)
		}
	}
	if form.Has("client_secret") {
		t.Error("client_secret sent although none is configured")
	}
}

func TestExchange_Error(t *testing.T) {
	srv := tokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_grant",
		"error_description": "Invalid authorization code",
	}, nil)

	a := newTestAuthenticator(t, srv.URL)
	_, err := a.Exchange(context.Background(), "bad-code", "verifier")
	if err == nil {
		t.Fatal("Exchange() expected error")
	}

	var ue *upstream.Error
	if !errors.As(err, &ue) {
		t.Fatalf("Exchange() error = %T, want *upstream.Error", err)
	}
	if ue.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", ue.Status, http.StatusBadRequest)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("error %q does not mention invalid_grant", err)
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		resp        map[string]any
		wantRefresh string
	}{
		{
			name: "rotated refresh token",
			resp: map[string]any{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"token_type":    "Bearer",
				"expires_in":    3600,
			},
			wantRefresh: "refresh-2",
		},
		{
			name: "refresh token omitted keeps the old one",
			resp: map[string]any{
				"access_token": "access-2",
				"token_type":   "Bearer",
				"expires_in":   3600,
			},
			wantRefresh: "refresh-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form url.Values
			srv := tokenServer(t, http.StatusOK, tt.resp, &form)

			a := newTestAuthenticator(t, srv.URL)
			tok, err := a.Refresh(context.Background(), "refresh-1")
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}

			if tok.AccessToken != "access-2" {
				t.Errorf("AccessToken = %q, want %q", tok.AccessToken, "access-2")
			}
			if tok.RefreshToken != tt.wantRefresh {
				t.Errorf("RefreshToken = %q, want %q", tok.RefreshToken, tt.wantRefresh)
			}
			if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "refresh-1" {
				t.Errorf("form = %v", form)
			}
		})
	}
}
