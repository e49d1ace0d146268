package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/musicanator/internal/tokens"
)

// CredentialRepository stores each user's Spotify credential.
type CredentialRepository struct {
	pool *pgxpool.Pool
}

// LoadCredential returns the user's credential, or (nil, nil) if none is stored.
func (r *CredentialRepository) LoadCredential(ctx context.Context, userID string) (*tokens.Credential, error) {
	query := `
		SELECT access_token, refresh_token, expires_at
		FROM spotify_credentials
		WHERE user_id = $1
	`
	var cred tokens.Credential
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &cred, nil
}

// SaveCredential creates or replaces the user's credential.
func (r *CredentialRepository) SaveCredential(ctx context.Context, userID string, cred *tokens.Credential) error {
	query := `
		INSERT INTO spotify_credentials (user_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		userID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

var _ tokens.Store = (*CredentialRepository)(nil)
