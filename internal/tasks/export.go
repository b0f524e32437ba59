package tasks

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/services"
	"github.com/desertthunder/soundscout/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// MaxTracksPerRequest is the Spotify limit for a single add-tracks call.
	MaxTracksPerRequest = 100

	// PlaylistDescription is attached to every exported playlist.
	PlaylistDescription = "Created by SoundScout for a collaborative session."

	defaultSearchConcurrency = 8
)

// TokenSource supplies the stored Spotify access token.
type TokenSource interface {
	AccessToken() (string, error)
}

// ServiceFactory builds an authenticated music service for an access token.
type ServiceFactory func(ctx context.Context, accessToken string) services.MusicService

// RemotePlaylistRef describes the outcome of an export.
type RemotePlaylistRef struct {
	ID        string
	URL       string
	Added     int // tracks added to the playlist
	Resolved  int // songs that matched a track
	Requested int // songs submitted for export
}

// ExportOpts tunes the search fan-out.
type ExportOpts struct {
	Concurrency int           // parallel searches (default 8)
	Limiter     *rate.Limiter // optional pacing of search calls
}

// ExportEngine publishes generated playlists to Spotify.
type ExportEngine struct {
	tokens  TokenSource
	factory ServiceFactory
	opts    ExportOpts
	logger  *log.Logger
}

// NewExportEngine creates an engine reading tokens from tokens and building clients with factory.
func NewExportEngine(tokens TokenSource, factory ServiceFactory, opts ExportOpts, logger *log.Logger) *ExportEngine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultSearchConcurrency
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExportEngine{tokens: tokens, factory: factory, opts: opts, logger: logger}
}

// Export resolves songs to Spotify tracks and creates a public playlist containing them.
//
// Searches that fail or return nothing count as unmatched. The export fails with
// [shared.ErrNoTracksResolved] when no song matches, and only the first
// [MaxTracksPerRequest] matches are added.
func (e *ExportEngine) Export(ctx context.Context, songs []models.Song, name string, progress chan<- ProgressUpdate) (*RemotePlaylistRef, error) {
	token, err := e.tokens.AccessToken()
	if err != nil {
		return nil, err
	}
	if e.factory == nil {
		return nil, fmt.Errorf("%w: spotify client not configured", shared.ErrServiceUnavailable)
	}
	srv := e.factory(ctx, token)

	sendProgress(progress, resolveAccountUpdate())
	userID, err := srv.CurrentUserID(ctx)
	if err != nil {
		return nil, exportError(err)
	}

	ids := e.resolveTracks(ctx, srv, songs, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, shared.ErrNoTracksResolved
	}

	sendProgress(progress, createPlaylistUpdate(name))
	remote, err := srv.CreatePlaylist(ctx, userID, name, PlaylistDescription, true)
	if err != nil {
		return nil, exportError(err)
	}

	resolved := len(ids)
	if resolved > MaxTracksPerRequest {
		e.logger.Warn("dropping tracks over the request limit", "resolved", resolved, "limit", MaxTracksPerRequest)
		ids = ids[:MaxTracksPerRequest]
	}

	sendProgress(progress, addTracksUpdate(len(ids), remote))
	if err := srv.AddTracks(ctx, remote.ID, ids); err != nil {
		return nil, exportError(err)
	}

	e.logger.Info("playlist exported", "id", remote.ID, "added", len(ids), "requested", len(songs))
	return &RemotePlaylistRef{
		ID:        remote.ID,
		URL:       remote.URL,
		Added:     len(ids),
		Resolved:  resolved,
		Requested: len(songs),
	}, nil
}

// resolveTracks searches every song and returns the matched IDs in song order.
func (e *ExportEngine) resolveTracks(ctx context.Context, srv services.MusicService, songs []models.Song, progress chan<- ProgressUpdate) []string {
	total := len(songs)
	sendProgress(progress, searchTracksUpdate(0, total, nil, false))

	matches := make([]string, total)
	var done atomic.Int32

	g := new(errgroup.Group)
	g.SetLimit(e.opts.Concurrency)
	for i := range songs {
		song := &songs[i]
		g.Go(func() error {
			id := e.search(ctx, srv, song)
			matches[i] = id
			sendProgress(progress, searchTracksUpdate(int(done.Add(1)), total, song, id != ""))
			return nil
		})
	}
	g.Wait()

	ids := make([]string, 0, total)
	for _, id := range matches {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *ExportEngine) search(ctx context.Context, srv services.MusicService, song *models.Song) string {
	if e.opts.Limiter != nil {
		if err := e.opts.Limiter.Wait(ctx); err != nil {
			return ""
		}
	}

	id, err := srv.SearchTrack(ctx, song.Title, song.Artist)
	if err != nil {
		e.logger.Debug("track search failed", "title", song.Title, "artist", song.Artist, "error", err)
		return ""
	}
	if id == "" {
		e.logger.Debug("no match", "title", song.Title, "artist", song.Artist)
	}
	return id
}

func exportError(err error) error {
	return fmt.Errorf("%w: %s", shared.ErrExportFailed, services.UpstreamMessage(err))
}
