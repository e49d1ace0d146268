package spotify

// Profile identifies a Spotify account.
type Profile struct {
	ID          string
	DisplayName string
}

// Playlist is a playlist created by Musicanator.
type Playlist struct {
	ID  string
	URL string
}
