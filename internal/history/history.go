// Package history records the playlists Musicanator created for each user.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// MaxEntries caps how many records a listing returns.
	MaxEntries = 50

	// NameLimit is how many characters of the concept a listing shows.
	NameLimit = 20

	ellipsis = "..."
)

// Record is one created playlist. Records are never updated.
type Record struct {
	ID          string
	UserID      string
	Concept     string
	PlaylistURL string
	PlaylistID  string
	CreatedAt   time.Time
}

// Entry is a record as shown to the user.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Store persists records.
type Store interface {
	AppendPlaylist(ctx context.Context, rec *Record) error
	// RecentPlaylists returns up to limit records for userID, newest first.
	RecentPlaylists(ctx context.Context, userID string, limit int) ([]Record, error)
}

// Service records and lists playlist history.
type Service struct {
	store Store
	clock clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for creation timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// New creates a history service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a record for a newly created playlist.
func (s *Service) Record(ctx context.Context, userID, concept, playlistURL, playlistID string) (*Record, error) {
	rec := &Record{
		ID:          uuid.NewString(),
		UserID:      userID,
		Concept:     concept,
		PlaylistURL: playlistURL,
		PlaylistID:  playlistID,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.store.AppendPlaylist(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording playlist: %w", err)
	}
	return rec, nil
}

// List returns the user's most recent playlists, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	records, err := s.store.RecentPlaylists(ctx, userID, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			ID:   r.ID,
			Name: DisplayName(r.Concept),
			URL:  r.PlaylistURL,
		})
	}
	return entries, nil
}

// DisplayName shortens a concept to NameLimit characters plus an ellipsis.
func DisplayName(concept string) string {
	runes := []rune(concept)
	if len(runes) <= NameLimit {
		return concept
	}
	return string(runes[:NameLimit]) + ellipsis
}
