package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/justestif/musicanator/internal/upstream"
)

func TestNewClient_MissingAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewClient() error = %v, want %v", err, ErrMissingAPIKey)
	}
}

func TestGenerateText(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   string
		wantText   string
		wantStatus int
		wantErrMsg string
	}{
		{
			name:   "joins parts of first candidate",
			status: http.StatusOK,
			response: `{"candidates":[{"content":{"parts":[{"text":"Daft Punk - One More Time\n"},{"text":"Air - La Femme d'Argent"}],"role":"model"}},
				{"content":{"parts":[{"text":"ignored - candidate"}]}}]}`,
			wantText: "Daft Punk - One More Time\nAir - La Femme d'Argent",
		},
		{
			name:     "no candidates",
			status:   http.StatusOK,
			response: `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantText: "",
		},
		{
			name:       "api error message",
			status:     http.StatusTooManyRequests,
			response:   `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantStatus: http.StatusTooManyRequests,
			wantErrMsg: "Resource has been exhausted",
		},
		{
			name:       "error without body",
			status:     http.StatusServiceUnavailable,
			response:   ``,
			wantStatus: http.StatusServiceUnavailable,
			wantErrMsg: "503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1beta/models/gemini-2.5-flash-lite:generateContent" {
					t.Errorf("path = %q", r.URL.Path)
				}
				if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
					t.Errorf("x-goog-api-key = %q, want %q", got, "test-key")
				}

				var body generateRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decoding body: %v", err)
				} else if len(body.Contents) != 1 || body.Contents[0].Parts[0].Text != "the prompt" {
					t.Errorf("body = %+v", body)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}

			text, err := c.GenerateText(context.Background(), "the prompt")
			if tt.wantErrMsg != "" {
				var ue *upstream.Error
				if !errors.As(err, &ue) {
					t.Fatalf("GenerateText() error = %v, want *upstream.Error", err)
				}
				if ue.Status != tt.wantStatus {
					t.Errorf("Status = %d, want %d", ue.Status, tt.wantStatus)
				}
				if !strings.Contains(err.Error(), tt.wantErrMsg) {
					t.Errorf("error %q does not contain %q", err, tt.wantErrMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateText() error = %v", err)
			}
			if text != tt.wantText {
				t.Errorf("GenerateText() = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestGenerateText_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.GenerateText(context.Background(), "slow")
	if !upstream.Is(err) {
		t.Errorf("GenerateText() error = %v, want upstream error", err)
	}
}
