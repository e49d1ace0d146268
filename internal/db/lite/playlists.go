package lite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/justestif/musicanator/internal/history"
)

// PlaylistRepository stores the playlists each user has built.
type PlaylistRepository struct {
	db *gorm.DB
}

// AppendPlaylist records a built playlist.
func (r *PlaylistRepository) AppendPlaylist(ctx context.Context, rec *history.Record) error {
	m := playlistModel{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Concept:     rec.Concept,
		PlaylistURL: rec.PlaylistURL,
		PlaylistID:  rec.PlaylistID,
		CreatedAt:   rec.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(&m).Error; err != nil {
		return fmt.Errorf("inserting playlist history: %w", err)
	}
	return nil
}

// RecentPlaylists returns up to limit records for userID, newest first.
func (r *PlaylistRepository) RecentPlaylists(ctx context.Context, userID string, limit int) ([]history.Record, error) {
	var rows []playlistModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying playlist history: %w", err)
	}

	records := make([]history.Record, len(rows))
	for i, m := range rows {
		records[i] = history.Record{
			ID:          m.ID,
			UserID:      m.UserID,
			Concept:     m.Concept,
			PlaylistURL: m.PlaylistURL,
			PlaylistID:  m.PlaylistID,
			CreatedAt:   m.CreatedAt,
		}
	}
	return records, nil
}

var _ history.Store = (*PlaylistRepository)(nil)
