package lite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justestif/musicanator/internal/tokens"
)

// CredentialRepository stores each user's Spotify credential.
type CredentialRepository struct {
	db *gorm.DB
}

// LoadCredential returns the user's credential, or (nil, nil) if none is stored.
func (r *CredentialRepository) LoadCredential(ctx context.Context, userID string) (*tokens.Credential, error) {
	var m credentialModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &tokens.Credential{
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
	}, nil
}

// SaveCredential creates or replaces the user's credential.
func (r *CredentialRepository) SaveCredential(ctx context.Context, userID string, cred *tokens.Credential) error {
	m := credentialModel{
		UserID:       userID,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
		}).
		Create(&m).Error
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

var _ tokens.Store = (*CredentialRepository)(nil)
