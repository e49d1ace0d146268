// Package config loads Musicanator configuration from a TOML file, a .env
// file and the process environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed musicanator.example.toml
var exampleConf []byte

// Validation errors.
var (
	ErrMissingSpotifyClientID = errors.New("missing SPOTIFY_ID (spotify.client_id)")
	ErrMissingGeminiAPIKey    = errors.New("missing GEMINI_API_KEY (gemini.api_key)")
	ErrMissingSessionSecret   = errors.New("missing SESSION_SECRET (session.secret)")
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Database DatabaseConfig `toml:"database"`
	Session  SessionConfig  `toml:"session"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	BaseURL string `toml:"base_url"`
	// HTTPTimeout bounds every outbound call to Spotify and Gemini.
	HTTPTimeout Duration `toml:"http_timeout"`
}

// SpotifyConfig contains Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// GeminiConfig contains Gemini API settings.
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	SongCount int    `toml:"song_count"`
}

// DatabaseConfig selects the store. A non-empty URL means PostgreSQL,
// otherwise SQLite at SQLitePath.
type DatabaseConfig struct {
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
}

// SessionConfig contains the signing secret for session cookies.
type SessionConfig struct {
	Secret string `toml:"secret"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration that decodes from TOML strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration described by the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &cfg
}

// Load builds the configuration: defaults, then the TOML file at path (skipped
// when it does not exist), then a .env file in the working directory, then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Server.BaseURL, "BASE_URL")
	setString(&c.Spotify.ClientID, "SPOTIFY_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_SECRET")
	setString(&c.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if err := c.Server.HTTPTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
	}

	if c.Spotify.RedirectURI == "" && c.Server.BaseURL != "" {
		c.Spotify.RedirectURI = strings.TrimRight(c.Server.BaseURL, "/") + "/api/spotify/callback"
	}
	return nil
}

// Validate reports the first required setting that is missing.
func (c *Config) Validate() error {
	switch {
	case c.Spotify.ClientID == "":
		return ErrMissingSpotifyClientID
	case c.Gemini.APIKey == "":
		return ErrMissingGeminiAPIKey
	case c.Session.Secret == "":
		return ErrMissingSessionSecret
	}
	return nil
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
