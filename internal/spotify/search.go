package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// SearchTopMatch searches tracks for query and returns the URI of the first
// result. found is false when the search has no results.
func (c *Client) SearchTopMatch(ctx context.Context, token, query string) (uri string, found bool, err error) {
	result, err := c.api(token).Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", false, wrapErr("search", err)
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return "", false, nil
	}
	return string(result.Tracks.Tracks[0].URI), true, nil
}
