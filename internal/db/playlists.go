package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/musicanator/internal/history"
)

// PlaylistRepository handles playlist history operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// AppendPlaylist inserts a history record.
func (r *PlaylistRepository) AppendPlaylist(ctx context.Context, rec *history.Record) error {
	query := `
		INSERT INTO playlist_history (id, user_id, concept, playlist_url, playlist_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Concept,
		rec.PlaylistURL,
		rec.PlaylistID,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting playlist record: %w", err)
	}
	return nil
}

// RecentPlaylists returns up to limit records for a user, newest first.
func (r *PlaylistRepository) RecentPlaylists(ctx context.Context, userID string, limit int) ([]history.Record, error) {
	query := `
		SELECT id, user_id, concept, playlist_url, playlist_id, created_at
		FROM playlist_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying playlist history: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Record, error) {
		var rec history.Record
		err := row.Scan(&rec.ID, &rec.UserID, &rec.Concept, &rec.PlaylistURL, &rec.PlaylistID, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning playlist history: %w", err)
	}
	return records, nil
}

var _ history.Store = (*PlaylistRepository)(nil)
