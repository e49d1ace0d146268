// Package playlists builds a Spotify playlist from a free-text concept.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/justestif/musicanator/internal/gemini"
	"github.com/justestif/musicanator/internal/history"
	"github.com/justestif/musicanator/internal/spotify"
	"github.com/justestif/musicanator/internal/tokens"
)

const (
	// NamePrefix starts the name of every playlist Musicanator creates.
	NamePrefix = "Musicanator Playlist"

	nameFormat = NamePrefix + " #%d"
)

var (
	// ErrMissingConcept is returned when the concept is empty.
	ErrMissingConcept = errors.New("missing concept")

	// ErrNoSongsFound is returned when no suggestion matched a Spotify track.
	ErrNoSongsFound = errors.New("no songs found")
)

// TokenProvider runs an operation with a valid Spotify access token.
type TokenProvider interface {
	WithValidToken(ctx context.Context, userID string, op func(ctx context.Context, accessToken string) error) error
}

// Catalog is the subset of the Spotify API a build needs.
type Catalog interface {
	Profile(ctx context.Context, token string) (*spotify.Profile, error)
	SearchTopMatch(ctx context.Context, token, query string) (string, bool, error)
	CountPlaylistsWithPrefix(ctx context.Context, token, prefix string) (int, error)
	CreatePlaylist(ctx context.Context, token, ownerID, name, description string) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

// Suggester produces "Artist - Title" lines for a concept.
type Suggester interface {
	Generate(ctx context.Context, concept string) ([]string, error)
}

// Recorder appends a created playlist to the user's history.
type Recorder interface {
	Record(ctx context.Context, userID, concept, playlistURL, playlistID string) (*history.Record, error)
}

// Stage names a step of a build, for logs.
type Stage string

// Build stages in execution order.
const (
	StageValidateInput       Stage = "validate_input"
	StageAuthenticate        Stage = "authenticate"
	StageAcquireToken        Stage = "acquire_token"
	StageFetchProfile        Stage = "fetch_profile"
	StageGenerateSuggestions Stage = "generate_suggestions"
	StageResolveTracks       Stage = "resolve_tracks"
	StageComputeSequence     Stage = "compute_sequence_number"
	StageCreatePlaylist      Stage = "create_playlist"
	StageAttachTracks        Stage = "attach_tracks"
	StageRecordHistory       Stage = "record_history"
)

// Result describes a created playlist.
type Result struct {
	PlaylistID string
	Name       string
	URL        string
	Tracks     int
}

// Config holds a Builder's collaborators.
type Config struct {
	Tokens    TokenProvider
	Catalog   Catalog
	Suggester Suggester
	History   Recorder
	Logger    *log.Logger
}

// Builder runs playlist builds. One Builder serves all requests; each Build
// call is independent and sequential.
type Builder struct {
	tokens    TokenProvider
	catalog   Catalog
	suggester Suggester
	history   Recorder
	log       *log.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Builder{
		tokens:    cfg.Tokens,
		catalog:   cfg.Catalog,
		suggester: cfg.Suggester,
		history:   cfg.History,
		log:       cfg.Logger.With("component", "playlists"),
	}
}

// Build creates a playlist for concept on behalf of userID and returns it.
// Nothing is retried or rolled back: a failure after the playlist was created
// leaves it on Spotify. A failure to record history is logged, not returned.
func (b *Builder) Build(ctx context.Context, userID, concept string) (*Result, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, ErrMissingConcept
	}
	if userID == "" {
		return nil, tokens.ErrUnauthenticated
	}

	var result *Result
	stage := StageAcquireToken
	err := b.tokens.WithValidToken(ctx, userID, func(ctx context.Context, token string) error {
		var err error
		result, stage, err = b.run(ctx, token, concept)
		return err
	})
	if err != nil {
		b.log.Warn("playlist build failed", "user", userID, "stage", stage, "err", err)
		return nil, err
	}

	if _, err := b.history.Record(ctx, userID, concept, result.URL, result.PlaylistID); err != nil {
		b.log.Warn("playlist created but not recorded", "user", userID, "stage", StageRecordHistory, "playlist", result.PlaylistID, "err", err)
	}

	b.log.Info("playlist created", "user", userID, "playlist", result.PlaylistID, "name", result.Name, "tracks", result.Tracks)
	return result, nil
}

// run executes the stages that need an access token. The returned stage is
// the one that failed, or the last one on success.
func (b *Builder) run(ctx context.Context, token, concept string) (*Result, Stage, error) {
	profile, err := b.catalog.Profile(ctx, token)
	if err != nil {
		return nil, StageFetchProfile, err
	}

	lines, err := b.suggester.Generate(ctx, concept)
	if err != nil {
		return nil, StageGenerateSuggestions, err
	}

	uris, err := ResolveTracks(ctx, b.catalog, token, lines)
	if err != nil {
		return nil, StageResolveTracks, err
	}
	if len(uris) == 0 {
		return nil, StageResolveTracks, ErrNoSongsFound
	}

	existing, err := b.catalog.CountPlaylistsWithPrefix(ctx, token, NamePrefix)
	if err != nil {
		return nil, StageComputeSequence, err
	}
	name := fmt.Sprintf(nameFormat, existing+1)

	playlist, err := b.catalog.CreatePlaylist(ctx, token, profile.ID, name, concept)
	if err != nil {
		return nil, StageCreatePlaylist, err
	}

	if err := b.catalog.AddTracks(ctx, token, playlist.ID, uris); err != nil {
		b.log.Warn("playlist left empty", "playlist", playlist.ID, "name", name)
		return nil, StageAttachTracks, err
	}

	return &Result{
		PlaylistID: playlist.ID,
		Name:       name,
		URL:        playlist.URL,
		Tracks:     len(uris),
	}, StageAttachTracks, nil
}

// ResolveTracks searches the catalog for each suggestion line, one at a time
// and in order, and returns the URIs that matched. Lines that are not shaped
// like "Artist - Title" are skipped without a search. Duplicates are kept.
func ResolveTracks(ctx context.Context, catalog Catalog, token string, lines []string) ([]string, error) {
	var uris []string
	for _, line := range lines {
		if !gemini.IsSuggestion(line) {
			continue
		}
		uri, found, err := catalog.SearchTopMatch(ctx, token, line)
		if err != nil {
			return nil, err
		}
		if found {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}
