package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/musicanator/internal/accounts"
)

const uniqueViolation = "23505"

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user *accounts.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		now,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return accounts.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	user.CreatedAt = now
	return nil
}

// User retrieves a user by ID.
func (r *UserRepository) User(ctx context.Context, id string) (*accounts.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// UserByUsername retrieves a user by username.
func (r *UserRepository) UserByUsername(ctx context.Context, username string) (*accounts.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(ctx, query, username)
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg string) (*accounts.User, error) {
	var user accounts.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accounts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

var _ accounts.Store = (*UserRepository)(nil)
