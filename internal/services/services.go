// package services defines the clients for the completion service and Spotify
package services

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/prompts"
)

// Completer produces playlists and artist song lists from a generative language model.
type Completer interface {
	// GeneratePlaylist returns a validated playlist for two listeners, a vibe and a size.
	GeneratePlaylist(ctx context.Context, first, second models.UserPreferences, vibe string, size models.Size) (*models.Playlist, error)

	// FindSongsByArtist streams song titles for artist, calling onSong once per distinct title in arrival order.
	FindSongsByArtist(ctx context.Context, artist string, policy prompts.SearchPolicy, onSong func(string)) error
}

// MusicService is the authenticated Spotify surface used to export a playlist.
type MusicService interface {
	// CurrentUserID returns the account identifier of the token owner.
	CurrentUserID(ctx context.Context) (string, error)

	// SearchTrack returns the ID of the best match for title and artist, or "" when nothing matches.
	SearchTrack(ctx context.Context, title, artist string) (string, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*RemotePlaylist, error)

	// AddTracks appends tracks to a playlist in a single request.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service
	Name() string
}

// RemotePlaylist references a playlist created on a streaming service.
type RemotePlaylist struct {
	ID  string
	URL string
}

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
