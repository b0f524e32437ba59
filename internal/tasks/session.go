package tasks

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/prompts"
	"github.com/desertthunder/soundscout/internal/services"
	"github.com/desertthunder/soundscout/internal/shared"
)

// Status is the outcome of the most recent asynchronous operation.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// HistoryRecorder persists generated playlists (repositories.PlaylistRepository).
type HistoryRecorder interface {
	Record(p models.Playlist, vibe string, size models.Size, first, second models.UserPreferences) (*models.PlaylistRecord, error)
	Update(record *models.PlaylistRecord) error
}

// Exporter publishes a playlist to a streaming service ([ExportEngine]).
type Exporter interface {
	Export(ctx context.Context, songs []models.Song, name string, progress chan<- ProgressUpdate) (*RemotePlaylistRef, error)
}

// SessionOpts wires a [Session] to its collaborators. Only Completer is required.
type SessionOpts struct {
	Completer services.Completer
	Exporter  Exporter
	History   HistoryRecorder
	Policy    prompts.SearchPolicy
	Logger    *log.Logger
}

// State is a point-in-time copy of a session, safe to render.
type State struct {
	Stage  models.AppStage
	Status Status
	Err    string // user-facing message for the last failed generation

	First  models.UserPreferences
	Second models.UserPreferences
	Vibe   string

	Playlist *models.Playlist
	Size     models.Size
	Record   int // history sequence of the current playlist, 0 when unsaved

	ExportStatus Status
	ExportErr    string
	Remote       *RemotePlaylistRef

	Artist       string
	ArtistSongs  []string
	ArtistStatus Status
	ArtistErr    string
}

// Session is the collaborative generation flow for two listeners.
//
// All state changes happen under a mutex; network calls run outside it. Every
// [Session.Reset] bumps an epoch, and results from operations started under an
// older epoch are discarded.
type Session struct {
	completer services.Completer
	exporter  Exporter
	history   HistoryRecorder
	policy    prompts.SearchPolicy
	logger    *log.Logger

	mu     sync.Mutex
	epoch  uint64
	lookup uint64
	record *models.PlaylistRecord
	state  State
}

// NewSession creates a session at the first listener's input step.
func NewSession(opts SessionOpts) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	policy := opts.Policy
	if policy == "" {
		policy = prompts.PolicyFast
	}
	return &Session{
		completer: opts.Completer,
		exporter:  opts.Exporter,
		history:   opts.History,
		policy:    policy,
		logger:    logger,
		state:     State{Stage: models.InputListener1},
	}
}

func (s *Session) listener(who models.Source) (*models.UserPreferences, error) {
	switch who {
	case models.FirstListener:
		return &s.state.First, nil
	case models.SecondListener:
		return &s.state.Second, nil
	}
	return nil, fmt.Errorf("%w: listener must be %s or %s", shared.ErrInvalidArgument,
		models.FirstListener.Label(), models.SecondListener.Label())
}

// SetPreferences replaces one listener's input.
func (s *Session) SetPreferences(who models.Source, prefs models.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.listener(who)
	if err != nil {
		return err
	}
	*p = clonePreferences(prefs)
	return nil
}

// SetVibe sets the shared context the playlist must match.
func (s *Session) SetVibe(vibe string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Vibe = vibe
}

// ToggleGenre adds or removes a quick-pick genre for one listener.
func (s *Session) ToggleGenre(who models.Source, genre string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.listener(who)
	if err != nil {
		return err
	}
	p.Genres = models.ToggleGenre(p.Genres, genre)
	return nil
}

// Next moves from the first listener's input to the second's.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Stage != models.InputListener1 {
		return fmt.Errorf("%w: next from %s", shared.ErrInvalidStage, s.state.Stage)
	}
	if !s.state.First.HasSignal() {
		return fmt.Errorf("%w: %s has no songs, artists or genres", shared.ErrInsufficientInput, models.FirstListener.Label())
	}
	s.state.Stage = models.InputListener2
	return nil
}

// Back returns to the previous input step.
//
// From a result stage it returns to the second listener's input with everything kept.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Status == Loading:
		return shared.ErrGenerationInFlight
	case s.state.Stage == models.InputListener2:
		s.state.Stage = models.InputListener1
	case s.state.Stage == models.TasterResult || s.state.Stage == models.FullPlaylist:
		s.state.Stage = models.InputListener2
	default:
		return fmt.Errorf("%w: back from %s", shared.ErrInvalidStage, s.state.Stage)
	}
	return nil
}

// CanGenerate reports whether both listeners and the vibe are filled in.
func (s *Session) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGenerate()
}

func (s *Session) canGenerate() bool {
	return s.state.First.HasSignal() && s.state.Second.HasSignal() && strings.TrimSpace(s.state.Vibe) != ""
}

// Generate asks the completer for a playlist of the given size.
//
// Requests are rejected before any network call when the stage does not allow
// them, the input is incomplete, or the current playlist is being exported. On
// failure the session returns to the second listener's input with all input kept.
func (s *Session) Generate(ctx context.Context, size models.Size) (*models.Playlist, error) {
	s.mu.Lock()
	if s.state.Status == Loading {
		s.mu.Unlock()
		return nil, shared.ErrGenerationInFlight
	}
	if s.state.ExportStatus == Loading {
		s.mu.Unlock()
		return nil, shared.ErrExportInFlight
	}
	if err := s.checkGenerate(size); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.state.Status = Loading
	s.state.Err = ""
	s.state.Playlist = nil
	s.state.Size = size
	s.state.Record = 0
	s.clearExport()
	s.record = nil

	epoch := s.epoch
	first, second := clonePreferences(s.state.First), clonePreferences(s.state.Second)
	vibe := strings.TrimSpace(s.state.Vibe)
	s.mu.Unlock()

	s.logger.Info("generating playlist", "size", size, "vibe", vibe)
	playlist, err := s.completer.GeneratePlaylist(ctx, first, second, vibe, size)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("discarding generation started before reset")
		return nil, shared.ErrStale
	}
	if err != nil {
		s.state.Status = Error
		s.state.Err = shared.UserMessage(err)
		s.state.Stage = models.InputListener2
		s.mu.Unlock()
		s.logger.Error("generation failed", "error", err)
		return nil, err
	}

	s.state.Status = Success
	s.state.Playlist = playlist
	s.state.Stage = size.ResultStage()
	s.mu.Unlock()

	s.remember(epoch, playlist, vibe, size, first, second)
	return clonePlaylist(playlist), nil
}

func (s *Session) checkGenerate(size models.Size) error {
	if _, err := models.ParseSize(string(size)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	switch stage := s.state.Stage; {
	case stage == models.InputListener1:
		return fmt.Errorf("%w: second listener has not been reached", shared.ErrInvalidStage)
	case size == models.SizeFull && stage != models.InputListener2 && stage != models.TasterResult:
		return fmt.Errorf("%w: full playlist from %s", shared.ErrInvalidStage, stage)
	}

	if !s.canGenerate() {
		return shared.ErrInsufficientInput
	}
	return nil
}

// remember saves a generated playlist to history. Failures are logged only.
func (s *Session) remember(epoch uint64, p *models.Playlist, vibe string, size models.Size, first, second models.UserPreferences) {
	if s.history == nil {
		return
	}

	record, err := s.history.Record(*clonePlaylist(p), vibe, size, first, second)
	if err != nil {
		s.logger.Warn("failed to save playlist history", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch && s.state.Playlist == p {
		s.record = record
		s.state.Record = record.Sequence()
	}
}

// LookupArtist streams song titles for artist, calling onSong for each new title.
//
// A later lookup or a reset stops delivery from an earlier one.
func (s *Session) LookupArtist(ctx context.Context, artist string, onSong func(string)) error {
	s.mu.Lock()
	s.lookup++
	id, epoch := s.lookup, s.epoch
	s.state.Artist = strings.TrimSpace(artist)
	s.state.ArtistSongs = nil
	s.state.ArtistStatus = Loading
	s.state.ArtistErr = ""
	s.mu.Unlock()

	current := func() bool { return s.lookup == id && s.epoch == epoch }

	err := s.completer.FindSongsByArtist(ctx, artist, s.policy, func(title string) {
		s.mu.Lock()
		if !current() {
			s.mu.Unlock()
			return
		}
		s.state.ArtistSongs = append(s.state.ArtistSongs, title)
		s.mu.Unlock()

		if onSong != nil {
			onSong(title)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return shared.ErrStale
	}
	if err != nil {
		s.state.ArtistStatus = Error
		s.state.ArtistErr = shared.UserMessage(err)
		return err
	}
	s.state.ArtistStatus = Success
	return nil
}

// Export publishes the current playlist and stores the remote reference.
//
// The result is discarded with [shared.ErrStale] when the session was reset or
// holds a different playlist by the time the export finishes.
func (s *Session) Export(ctx context.Context, progress chan<- ProgressUpdate) (*RemotePlaylistRef, error) {
	s.mu.Lock()
	if s.exporter == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: export is not configured", shared.ErrServiceUnavailable)
	}
	if s.state.Playlist == nil || s.state.Status != Success {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no playlist to export", shared.ErrInvalidStage)
	}
	if s.state.ExportStatus == Loading {
		s.mu.Unlock()
		return nil, shared.ErrExportInFlight
	}

	s.clearExport()
	s.state.ExportStatus = Loading
	epoch := s.epoch
	current := s.state.Playlist
	playlist := clonePlaylist(current)
	s.mu.Unlock()

	ref, err := s.exporter.Export(ctx, playlist.Songs, playlist.Name, progress)

	s.mu.Lock()
	if s.epoch != epoch || s.state.Playlist != current {
		s.mu.Unlock()
		s.logger.Debug("discarding export of a replaced playlist")
		return nil, shared.ErrStale
	}
	if err != nil {
		s.state.ExportStatus = Error
		s.state.ExportErr = shared.UserMessage(err)
		s.mu.Unlock()
		s.logger.Error("export failed", "error", err)
		return nil, err
	}

	s.state.ExportStatus = Success
	s.state.Remote = ref
	record := s.record
	s.mu.Unlock()

	if record != nil && s.history != nil {
		record.MarkExported(ref.ID, ref.URL)
		if err := s.history.Update(record); err != nil {
			s.logger.Warn("failed to save export to history", "error", err)
		}
	}
	copied := *ref
	return &copied, nil
}

func (s *Session) clearExport() {
	s.state.ExportStatus = Idle
	s.state.ExportErr = ""
	s.state.Remote = nil
}

// Reset clears all input and results and returns to the first listener's input.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.record = nil
	s.state = State{Stage: models.InputListener1}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.First = clonePreferences(st.First)
	st.Second = clonePreferences(st.Second)
	st.Playlist = clonePlaylist(st.Playlist)
	st.ArtistSongs = slices.Clone(st.ArtistSongs)
	if st.Remote != nil {
		remote := *st.Remote
		st.Remote = &remote
	}
	return st
}

func clonePreferences(p models.UserPreferences) models.UserPreferences {
	p.Songs = slices.Clone(p.Songs)
	p.Genres = slices.Clone(p.Genres)
	return p
}

func clonePlaylist(p *models.Playlist) *models.Playlist {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Songs = slices.Clone(p.Songs)
	return &copied
}
