// Spotify Web API implementation of [MusicService]
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// SpotifyAPIURL is the default Web API base; it must end in a slash.
const SpotifyAPIURL = "https://api.spotify.com/v1/"

// SpotifyService wraps a token-authenticated [spotify.Client].
type SpotifyService struct {
	client *spotify.Client
	logger *log.Logger
}

// NewSpotifyService builds a client that sends accessToken as a Bearer header on every call.
//
// apiURL overrides the Web API base; empty selects [SpotifyAPIURL].
func NewSpotifyService(ctx context.Context, accessToken, apiURL string, logger *log.Logger) *SpotifyService {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)

	if apiURL == "" {
		apiURL = SpotifyAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	return &SpotifyService{
		client: spotify.New(httpClient, spotify.WithBaseURL(apiURL)),
		logger: discardLogger(logger),
	}
}

// Name returns the name of the service
func (s *SpotifyService) Name() string { return "Spotify" }

// CurrentUserID returns the Spotify user ID of the token owner.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", errors.New("profile response has no user id")
	}
	return user.ID, nil
}

// SearchQuery renders the field-filtered track query for a title and artist.
func SearchQuery(title, artist string) string {
	q := "track:" + strings.TrimSpace(title)
	if artist = strings.TrimSpace(artist); artist != "" {
		q += " artist:" + artist
	}
	return q
}

// SearchTrack returns the ID of the first track matching title and artist, or "" when there is none.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (string, error) {
	result, err := s.client.Search(ctx, SearchQuery(title, artist), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", err
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		s.logger.Debug("no spotify match", "title", title, "artist", artist)
		return "", nil
	}
	return string(result.Tracks.Tracks[0].ID), nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*RemotePlaylist, error) {
	pl, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, err
	}
	return &RemotePlaylist{ID: string(pl.ID), URL: pl.ExternalURLs["spotify"]}, nil
}

// AddTracks appends trackIDs to the playlist in one request.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	snapshot, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...)
	if err != nil {
		return err
	}
	s.logger.Debug("tracks added", "playlist", playlistID, "count", len(ids), "snapshot", snapshot)
	return nil
}

// UpstreamMessage extracts the Web API error message from err, falling back to err's text.
func UpstreamMessage(err error) string {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr.Message != "" {
		return apiErrPtr.Message
	}
	return fmt.Sprint(err)
}
