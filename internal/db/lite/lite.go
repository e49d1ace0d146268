// Package lite provides SQLite storage for Musicanator, used when no
// PostgreSQL URL is configured.
package lite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps a gorm connection to a SQLite file.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// its schema.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&userModel{}, &credentialModel{}, &playlistModel{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Users returns a UserRepository.
func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db}
}

// Credentials returns a CredentialRepository.
func (s *Store) Credentials() *CredentialRepository {
	return &CredentialRepository{db: s.db}
}

// Playlists returns a PlaylistRepository.
func (s *Store) Playlists() *PlaylistRepository {
	return &PlaylistRepository{db: s.db}
}

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type credentialModel struct {
	UserID       string    `gorm:"column:user_id;primaryKey"`
	User         userModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AccessToken  string    `gorm:"column:access_token;not null"`
	RefreshToken string    `gorm:"column:refresh_token;not null;default:''"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (credentialModel) TableName() string { return "spotify_credentials" }

type playlistModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;not null;index:idx_playlist_history_user_created,priority:1"`
	User        userModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Concept     string    `gorm:"column:concept;not null"`
	PlaylistURL string    `gorm:"column:playlist_url;not null"`
	PlaylistID  string    `gorm:"column:playlist_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;index:idx_playlist_history_user_created,priority:2,sort:desc"`
}

func (playlistModel) TableName() string { return "playlist_history" }

// isUniqueViolation reports whether err comes from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
