package lite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/musicanator/internal/accounts"
	"github.com/justestif/musicanator/internal/history"
	"github.com/justestif/musicanator/internal/tokens"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "musicanator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, id, username string) {
	t.Helper()
	err := store.Users().CreateUser(context.Background(), &accounts.User{
		ID:           id,
		Username:     username,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
}

func TestOpen_Ping(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1", "alice")

	byName, err := store.Users().UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)
	assert.False(t, byName.CreatedAt.IsZero())

	byID, err := store.Users().User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	err = store.Users().CreateUser(ctx, &accounts.User{ID: "u2", Username: "alice", PasswordHash: "x"})
	require.ErrorIs(t, err, accounts.ErrUsernameTaken)

	_, err = store.Users().User(ctx, "missing")
	require.ErrorIs(t, err, accounts.ErrNotFound)

	_, err = store.Users().UserByUsername(ctx, "bob")
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1", "alice")
	createUser(t, store, "u2", "bob")
	repo := store.Credentials()

	cred, err := repo.LoadCredential(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cred)

	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveCredential(ctx, "u1", &tokens.Credential{
		AccessToken: "first", RefreshToken: "r1", ExpiresAt: expires,
	}))
	require.NoError(t, repo.SaveCredential(ctx, "u1", &tokens.Credential{
		AccessToken: "second", RefreshToken: "r2", ExpiresAt: expires.Add(time.Hour),
	}))

	cred, err = repo.LoadCredential(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "second", cred.AccessToken)
	assert.Equal(t, "r2", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.Equal(expires.Add(time.Hour)), "ExpiresAt = %v", cred.ExpiresAt)

	other, err := repo.LoadCredential(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestPlaylists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1", "alice")
	createUser(t, store, "u2", "bob")
	repo := store.Playlists()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		require.NoError(t, repo.AppendPlaylist(ctx, &history.Record{
			ID:          fmt.Sprintf("p%02d", i),
			UserID:      "u1",
			Concept:     fmt.Sprintf("concept %d", i),
			PlaylistURL: fmt.Sprintf("https://open.spotify.com/playlist/p%02d", i),
			PlaylistID:  fmt.Sprintf("p%02d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.AppendPlaylist(ctx, &history.Record{
		ID: "bob-1", UserID: "u2", Concept: "bob's", PlaylistURL: "u", PlaylistID: "b", CreatedAt: base,
	}))

	records, err := repo.RecentPlaylists(ctx, "u1", history.MaxEntries)
	require.NoError(t, err)
	require.Len(t, records, history.MaxEntries)
	assert.Equal(t, "p59", records[0].ID)
	assert.Equal(t, "p10", records[len(records)-1].ID)
	for _, rec := range records {
		assert.Equal(t, "u1", rec.UserID)
	}

	bobs, err := repo.RecentPlaylists(ctx, "u2", history.MaxEntries)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "bob's", bobs[0].Concept)

	none, err := repo.RecentPlaylists(ctx, "nobody", history.MaxEntries)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPlaylists_SameTimestampNewestInsertFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1", "alice")

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Playlists().AppendPlaylist(ctx, &history.Record{
			ID: id, UserID: "u1", Concept: id, PlaylistURL: "u", PlaylistID: id, CreatedAt: at,
		}))
	}

	records, err := store.Playlists().RecentPlaylists(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{records[0].ID, records[1].ID, records[2].ID})
}
