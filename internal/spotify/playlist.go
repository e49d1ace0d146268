package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	maxTracksPerRequest = 100
	playlistPageSize    = 50
	trackURIPrefix      = "spotify:track:"
)

// CountPlaylistsWithPrefix walks every page of the current user's playlists
// and counts those whose name starts with prefix. A failed page fails the
// whole count.
func (c *Client) CountPlaylistsWithPrefix(ctx context.Context, token, prefix string) (int, error) {
	api := c.api(token)

	page, err := api.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageSize))
	if err != nil {
		return 0, wrapErr("list playlists", err)
	}

	count := 0
	for {
		for _, p := range page.Playlists {
			if strings.HasPrefix(p.Name, prefix) {
				count++
			}
		}

		err = api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return 0, wrapErr("list playlists", err)
		}
	}

	return count, nil
}

// CreatePlaylist creates a private playlist owned by ownerID.
func (c *Client) CreatePlaylist(ctx context.Context, token, ownerID, name, description string) (*Playlist, error) {
	playlist, err := c.api(token).CreatePlaylistForUser(ctx, ownerID, name, description, false, false)
	if err != nil {
		return nil, wrapErr("create playlist", err)
	}

	return &Playlist{
		ID:  playlist.ID.String(),
		URL: playlist.ExternalURLs["spotify"],
	}, nil
}

// AddTracks appends track URIs to a playlist in order. Spotify accepts at most
// 100 per request, so longer lists are sent in consecutive batches.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		ids[i] = spotify.ID(strings.TrimPrefix(uri, trackURIPrefix))
	}

	api := c.api(token)
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		if _, err := api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return wrapErr(fmt.Sprintf("add tracks %d-%d", i+1, end), err)
		}
	}

	return nil
}
