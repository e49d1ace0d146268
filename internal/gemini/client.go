// Package gemini generates song suggestions with the Gemini text model.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/justestif/musicanator/internal/upstream"
)

const (
	// DefaultBaseURL is the Generative Language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash-lite"

	serviceName    = "gemini"
	defaultTimeout = 30 * time.Second
	userAgent      = "musicanator/1.0"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured.
var ErrMissingAPIKey = errors.New("missing Gemini API key")

// Config configures a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the generateContent endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a Gemini client.
// Returns ErrMissingAPIKey if cfg.APIKey is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.NewWithClient(&http.Client{Timeout: cfg.Timeout}).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("x-goog-api-key", cfg.APIKey).
		SetHeader("User-Agent", userAgent)

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if !resp.IsError() {
			return nil
		}
		msg := gjson.GetBytes(resp.Body(), "error.message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return upstream.Wrap(serviceName, "generate content", resp.StatusCode(), errors.New(msg))
	})

	return &Client{http: client, model: cfg.Model}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GenerateText sends prompt as a single user turn and returns the text of the
// first candidate. A response without candidates yields an empty string.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", upstream.Wrap(serviceName, "generate content", 0, err)
	}

	parts := gjson.GetBytes(resp.Body(), "candidates.0.content.parts.#.text").Array()
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.String())
	}
	return sb.String(), nil
}
