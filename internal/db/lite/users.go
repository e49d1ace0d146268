package lite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/justestif/musicanator/internal/accounts"
)

// UserRepository stores Musicanator accounts.
type UserRepository struct {
	db *gorm.DB
}

// CreateUser inserts a new account.
// Returns accounts.ErrUsernameTaken if the username is in use.
func (r *UserRepository) CreateUser(ctx context.Context, user *accounts.User) error {
	m := userModel{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return accounts.ErrUsernameTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	user.CreatedAt = m.CreatedAt
	return nil
}

// UserByUsername looks an account up by username.
func (r *UserRepository) UserByUsername(ctx context.Context, username string) (*accounts.User, error) {
	return r.first(ctx, "username = ?", username)
}

// User looks an account up by ID.
func (r *UserRepository) User(ctx context.Context, id string) (*accounts.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, arg string) (*accounts.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accounts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &accounts.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}, nil
}

var _ accounts.Store = (*UserRepository)(nil)
