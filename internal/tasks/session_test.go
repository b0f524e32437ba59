package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/prompts"
	"github.com/desertthunder/soundscout/internal/shared"
	tu "github.com/desertthunder/soundscout/internal/testing"
)

var (
	alex = models.UserPreferences{
		Songs:  []models.SongWithArtist{{Title: "Hyperballad", Artist: "Björk"}},
		Genres: []string{"Electronic"},
	}
	sam = models.UserPreferences{
		Artists: "Phoebe Bridgers",
		Genres:  []string{"Indie"},
	}
	taster = &models.Playlist{
		Name: "Common Ground",
		Songs: []models.Song{
			{Title: "Teardrop", Artist: "Massive Attack", Source: models.Both},
			{Title: "Motion Sickness", Artist: "Phoebe Bridgers", Source: models.SecondListener},
			{Title: "Joga", Artist: "Björk", Source: models.FirstListener},
		},
	}
)

type fakeHistory struct {
	mu       sync.Mutex
	recorded []*models.PlaylistRecord
	updated  []*models.PlaylistRecord
	err      error
}

func (h *fakeHistory) Record(p models.Playlist, vibe string, size models.Size, first, second models.UserPreferences) (*models.PlaylistRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	r := models.NewPlaylistRecord(p, vibe, size, first, second)
	r.SetSequence(len(h.recorded) + 1)
	h.recorded = append(h.recorded, r)
	return r, nil
}

func (h *fakeHistory) Update(r *models.PlaylistRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = append(h.updated, r)
	return nil
}

type fakeExporter struct {
	ref   *RemotePlaylistRef
	err   error
	block chan struct{}
	calls int
	songs []models.Song
}

func (f *fakeExporter) Export(ctx context.Context, songs []models.Song, name string, progress chan<- ProgressUpdate) (*RemotePlaylistRef, error) {
	f.calls++
	f.songs = songs
	if f.block != nil {
		<-f.block
	}
	return f.ref, f.err
}

// readySession returns a session at the second listener's input with a vibe set.
func readySession(t *testing.T, opts SessionOpts) *Session {
	t.Helper()
	s := NewSession(opts)
	if err := s.SetPreferences(models.FirstListener, alex); err != nil {
		t.Fatalf("SetPreferences() error = %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := s.SetPreferences(models.SecondListener, sam); err != nil {
		t.Fatalf("SetPreferences() error = %v", err)
	}
	s.SetVibe("late night drive")
	return s
}

func TestSessionInput(t *testing.T) {
	t.Run("next requires first listener signal", func(t *testing.T) {
		s := NewSession(SessionOpts{Completer: &tu.FakeCompleter{}})
		if err := s.Next(); !errors.Is(err, shared.ErrInsufficientInput) {
			t.Fatalf("expected ErrInsufficientInput, got %v", err)
		}

		s.ToggleGenre(models.FirstListener, "Jazz")
		if err := s.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if st := s.Snapshot(); st.Stage != models.InputListener2 {
			t.Errorf("expected InputListener2, got %s", st.Stage)
		}
		if err := s.Next(); !errors.Is(err, shared.ErrInvalidStage) {
			t.Errorf("expected ErrInvalidStage, got %v", err)
		}
	})

	t.Run("back", func(t *testing.T) {
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{}})
		if err := s.Back(); err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		if st := s.Snapshot(); st.Stage != models.InputListener1 || st.Second.Artists != "Phoebe Bridgers" {
			t.Errorf("expected InputListener1 with input kept, got %+v", st)
		}
		if err := s.Back(); !errors.Is(err, shared.ErrInvalidStage) {
			t.Errorf("expected ErrInvalidStage, got %v", err)
		}
	})

	t.Run("toggle genre", func(t *testing.T) {
		s := NewSession(SessionOpts{Completer: &tu.FakeCompleter{}})
		s.ToggleGenre(models.SecondListener, "Rock")
		s.ToggleGenre(models.SecondListener, "Pop")
		s.ToggleGenre(models.SecondListener, "rock")

		if got := s.Snapshot().Second.Genres; len(got) != 1 || got[0] != "Pop" {
			t.Errorf("expected [Pop], got %v", got)
		}
		if err := s.ToggleGenre(models.Both, "Pop"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("can generate", func(t *testing.T) {
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{}})
		if !s.CanGenerate() {
			t.Fatal("expected CanGenerate with both listeners and a vibe")
		}
		s.SetVibe("   ")
		if s.CanGenerate() {
			t.Error("blank vibe should block generation")
		}
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{}})
		st := s.Snapshot()
		st.First.Genres[0] = "Changed"

		if s.Snapshot().First.Genres[0] != "Electronic" {
			t.Error("mutating a snapshot changed the session")
		}
	})
}

func TestSessionGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("taster then full", func(t *testing.T) {
		fc := &tu.FakeCompleter{Playlist: taster}
		history := &fakeHistory{}
		s := readySession(t, SessionOpts{Completer: fc, History: history})

		p, err := s.Generate(ctx, models.SizeTaster)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if p.Name != "Common Ground" {
			t.Errorf("unexpected playlist %+v", p)
		}

		st := s.Snapshot()
		if st.Stage != models.TasterResult || st.Status != Success || st.Record != 1 {
			t.Errorf("unexpected state %s/%s record=%d", st.Stage, st.Status, st.Record)
		}
		if fc.LastVibe != "late night drive" || fc.LastSize != models.SizeTaster || fc.LastSecond.Artists != "Phoebe Bridgers" {
			t.Errorf("completer got vibe=%q size=%q second=%+v", fc.LastVibe, fc.LastSize, fc.LastSecond)
		}

		if _, err := s.Generate(ctx, models.SizeFull); err != nil {
			t.Fatalf("Generate(full) error = %v", err)
		}
		if st := s.Snapshot(); st.Stage != models.FullPlaylist || st.Size != models.SizeFull {
			t.Errorf("expected FullPlaylist, got %s", st.Stage)
		}
		if len(history.recorded) != 2 {
			t.Errorf("expected both playlists recorded, got %d", len(history.recorded))
		}
	})

	t.Run("rejected before any call", func(t *testing.T) {
		tc := []struct {
			name  string
			setup func(*Session)
			size  models.Size
			want  error
		}{
			{"first listener stage", func(s *Session) { s.Back() }, models.SizeTaster, shared.ErrInvalidStage},
			{"missing vibe", func(s *Session) { s.SetVibe("") }, models.SizeTaster, shared.ErrInsufficientInput},
			{"empty second listener", func(s *Session) {
				s.SetPreferences(models.SecondListener, models.UserPreferences{})
			}, models.SizeTaster, shared.ErrInsufficientInput},
			{"unknown size", func(s *Session) {}, models.Size("huge"), shared.ErrInvalidArgument},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				fc := &tu.FakeCompleter{Playlist: taster}
				s := readySession(t, SessionOpts{Completer: fc})
				tt.setup(s)

				if _, err := s.Generate(ctx, tt.size); !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if fc.CallCount() != 0 {
					t.Error("completer should not be called")
				}
			})
		}
	})

	t.Run("full not allowed from full playlist", func(t *testing.T) {
		fc := &tu.FakeCompleter{Playlist: taster}
		s := readySession(t, SessionOpts{Completer: fc})
		if _, err := s.Generate(ctx, models.SizeFull); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if _, err := s.Generate(ctx, models.SizeFull); !errors.Is(err, shared.ErrInvalidStage) {
			t.Fatalf("expected ErrInvalidStage, got %v", err)
		}
	})

	t.Run("failure keeps input and returns to second listener", func(t *testing.T) {
		fc := &tu.FakeCompleter{Err: shared.ErrGenerationFailed}
		history := &fakeHistory{}
		s := readySession(t, SessionOpts{Completer: fc, History: history})

		if _, err := s.Generate(ctx, models.SizeTaster); !errors.Is(err, shared.ErrGenerationFailed) {
			t.Fatalf("expected ErrGenerationFailed, got %v", err)
		}

		st := s.Snapshot()
		if st.Status != Error || st.Stage != models.InputListener2 {
			t.Errorf("unexpected state %s/%s", st.Stage, st.Status)
		}
		if st.Err != shared.GenerationFailedMessage {
			t.Errorf("expected user-facing message, got %q", st.Err)
		}
		if st.Playlist != nil || st.First.Songs[0].Title != "Hyperballad" || st.Vibe != "late night drive" {
			t.Errorf("input should be kept and result cleared: %+v", st)
		}
		if len(history.recorded) != 0 {
			t.Error("failed generations should not be recorded")
		}
	})

	t.Run("new generation clears previous result", func(t *testing.T) {
		block := make(chan struct{})
		fc := &tu.FakeCompleter{Playlist: taster}
		s := readySession(t, SessionOpts{Completer: fc, Exporter: &fakeExporter{ref: &RemotePlaylistRef{ID: "x"}}})
		s.Generate(ctx, models.SizeTaster)
		s.Export(ctx, nil)

		fc.Block = block
		done := make(chan error)
		go func() {
			_, err := s.Generate(ctx, models.SizeFull)
			done <- err
		}()

		waitFor(t, func() bool { return s.Snapshot().Status == Loading })
		st := s.Snapshot()
		if st.Playlist != nil || st.Remote != nil || st.Err != "" {
			t.Errorf("loading state should be clean: %+v", st)
		}
		if _, err := s.Generate(ctx, models.SizeTaster); !errors.Is(err, shared.ErrGenerationInFlight) {
			t.Errorf("expected ErrGenerationInFlight, got %v", err)
		}

		close(block)
		if err := <-done; err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	})

	t.Run("reset discards in-flight result", func(t *testing.T) {
		block := make(chan struct{})
		fc := &tu.FakeCompleter{Playlist: taster, Block: block}
		history := &fakeHistory{}
		s := readySession(t, SessionOpts{Completer: fc, History: history})

		done := make(chan error)
		go func() {
			_, err := s.Generate(ctx, models.SizeTaster)
			done <- err
		}()

		waitFor(t, func() bool { return s.Snapshot().Status == Loading })
		s.Reset()
		close(block)

		if err := <-done; !errors.Is(err, shared.ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		st := s.Snapshot()
		if st.Stage != models.InputListener1 || st.Status != Idle || st.Playlist != nil {
			t.Errorf("reset state was overwritten: %+v", st)
		}
		if len(history.recorded) != 0 {
			t.Error("stale result should not be recorded")
		}
	})

	t.Run("history failure is not fatal", func(t *testing.T) {
		fc := &tu.FakeCompleter{Playlist: taster}
		s := readySession(t, SessionOpts{Completer: fc, History: &fakeHistory{err: errors.New("disk full")}})

		if _, err := s.Generate(ctx, models.SizeTaster); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if st := s.Snapshot(); st.Record != 0 || st.Status != Success {
			t.Errorf("unexpected state %+v", st)
		}
	})
}

func TestSessionReset(t *testing.T) {
	fc := &tu.FakeCompleter{Playlist: taster}
	s := readySession(t, SessionOpts{Completer: fc})
	s.Generate(context.Background(), models.SizeTaster)

	s.Reset()
	first := s.Snapshot()
	s.Reset()
	second := s.Snapshot()

	if first.Stage != models.InputListener1 || first.Vibe != "" || first.First.HasSignal() || first.Playlist != nil {
		t.Errorf("reset did not clear state: %+v", first)
	}
	if first.Stage != second.Stage || first.Status != second.Status {
		t.Error("reset should be idempotent")
	}
}

func TestSessionLookupArtist(t *testing.T) {
	ctx := context.Background()

	t.Run("collects songs in order", func(t *testing.T) {
		fc := &tu.FakeCompleter{Songs: []string{"Hyperballad", "Joga", "Army of Me"}}
		s := NewSession(SessionOpts{Completer: fc, Policy: prompts.PolicyAlphabetical})

		var got []string
		if err := s.LookupArtist(ctx, "Björk", func(title string) { got = append(got, title) }); err != nil {
			t.Fatalf("LookupArtist() error = %v", err)
		}

		st := s.Snapshot()
		if len(got) != 3 || len(st.ArtistSongs) != 3 || st.ArtistSongs[2] != "Army of Me" {
			t.Errorf("got %v, state %v", got, st.ArtistSongs)
		}
		if st.ArtistStatus != Success || fc.LastPolicy != prompts.PolicyAlphabetical || fc.LastArtist != "Björk" {
			t.Errorf("unexpected lookup state %+v policy=%s", st, fc.LastPolicy)
		}
	})

	t.Run("defaults to fast policy", func(t *testing.T) {
		fc := &tu.FakeCompleter{}
		s := NewSession(SessionOpts{Completer: fc})
		s.LookupArtist(ctx, "Björk", nil)
		if fc.LastPolicy != prompts.PolicyFast {
			t.Errorf("expected fast policy, got %s", fc.LastPolicy)
		}
	})

	t.Run("failure", func(t *testing.T) {
		fc := &tu.FakeCompleter{Songs: []string{"One"}, Err: shared.ErrStreamLookupFailed}
		s := NewSession(SessionOpts{Completer: fc})

		if err := s.LookupArtist(ctx, "Nobody", nil); !errors.Is(err, shared.ErrStreamLookupFailed) {
			t.Fatalf("expected ErrStreamLookupFailed, got %v", err)
		}
		st := s.Snapshot()
		if st.ArtistStatus != Error || st.ArtistErr == "" || len(st.ArtistSongs) != 1 {
			t.Errorf("unexpected state %+v", st)
		}
	})

	t.Run("reset stops delivery", func(t *testing.T) {
		block := make(chan struct{})
		fc := &tu.FakeCompleter{Songs: []string{"First", "Second"}, Block: block}
		s := NewSession(SessionOpts{Completer: fc})

		var mu sync.Mutex
		var got []string
		done := make(chan error)
		go func() {
			done <- s.LookupArtist(ctx, "Björk", func(title string) {
				mu.Lock()
				got = append(got, title)
				mu.Unlock()
			})
		}()

		waitFor(t, func() bool { return len(s.Snapshot().ArtistSongs) == 1 })
		s.Reset()
		close(block)

		if err := <-done; !errors.Is(err, shared.ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if len(got) != 1 {
			t.Errorf("expected delivery to stop after reset, got %v", got)
		}
		if len(s.Snapshot().ArtistSongs) != 0 {
			t.Error("reset state should stay empty")
		}
	})
}

func TestSessionExport(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a playlist", func(t *testing.T) {
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{}, Exporter: &fakeExporter{}})
		if _, err := s.Export(ctx, nil); !errors.Is(err, shared.ErrInvalidStage) {
			t.Fatalf("expected ErrInvalidStage, got %v", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{Playlist: taster}})
		s.Generate(ctx, models.SizeTaster)
		if _, err := s.Export(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("stores the remote playlist and updates history", func(t *testing.T) {
		history := &fakeHistory{}
		exp := &fakeExporter{ref: &RemotePlaylistRef{ID: "pl-9", URL: "https://open.spotify.com/playlist/pl-9", Added: 3}}
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{Playlist: taster}, Exporter: exp, History: history})
		s.Generate(ctx, models.SizeTaster)

		ref, err := s.Export(ctx, nil)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if ref.URL != "https://open.spotify.com/playlist/pl-9" || len(exp.songs) != 3 {
			t.Errorf("unexpected export %+v songs=%d", ref, len(exp.songs))
		}

		st := s.Snapshot()
		if st.ExportStatus != Success || st.Remote == nil || st.Remote.ID != "pl-9" {
			t.Errorf("unexpected export state %+v", st)
		}
		if len(history.updated) != 1 || !history.updated[0].Exported() {
			t.Error("expected history entry to be marked exported")
		}
	})

	t.Run("failure message", func(t *testing.T) {
		exp := &fakeExporter{err: shared.ErrNoTracksResolved}
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{Playlist: taster}, Exporter: exp})
		s.Generate(ctx, models.SizeTaster)

		if _, err := s.Export(ctx, nil); !errors.Is(err, shared.ErrNoTracksResolved) {
			t.Fatalf("expected ErrNoTracksResolved, got %v", err)
		}
		st := s.Snapshot()
		if st.ExportStatus != Error || st.ExportErr != shared.UserMessage(shared.ErrNoTracksResolved) {
			t.Errorf("unexpected export state %+v", st)
		}
		if st.Playlist == nil {
			t.Error("playlist should survive a failed export")
		}
	})

	t.Run("reset discards export result", func(t *testing.T) {
		block := make(chan struct{})
		exp := &fakeExporter{ref: &RemotePlaylistRef{ID: "late"}, block: block}
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{Playlist: taster}, Exporter: exp})
		s.Generate(ctx, models.SizeTaster)

		done := make(chan error)
		go func() {
			_, err := s.Export(ctx, nil)
			done <- err
		}()

		waitFor(t, func() bool { return s.Snapshot().ExportStatus == Loading })
		s.Reset()
		close(block)

		if err := <-done; !errors.Is(err, shared.ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		if s.Snapshot().Remote != nil {
			t.Error("stale export should not be stored")
		}
	})

	t.Run("full playlist waits for export", func(t *testing.T) {
		block := make(chan struct{})
		history := &fakeHistory{}
		fake := &tu.FakeCompleter{Playlist: taster}
		exp := &fakeExporter{ref: &RemotePlaylistRef{ID: "taster-remote", URL: "https://open.spotify.com/playlist/taster-remote"}, block: block}
		s := readySession(t, SessionOpts{Completer: fake, Exporter: exp, History: history})
		s.Generate(ctx, models.SizeTaster)

		done := make(chan error)
		go func() {
			_, err := s.Export(ctx, nil)
			done <- err
		}()
		waitFor(t, func() bool { return s.Snapshot().ExportStatus == Loading })

		if _, err := s.Generate(ctx, models.SizeFull); !errors.Is(err, shared.ErrExportInFlight) {
			t.Fatalf("expected ErrExportInFlight, got %v", err)
		}
		if fake.CallCount() != 1 {
			t.Errorf("completer should not be called during export, got %d calls", fake.CallCount())
		}
		close(block)

		if err := <-done; err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		st := s.Snapshot()
		if st.Stage != models.TasterResult || st.Remote == nil || st.Remote.ID != "taster-remote" {
			t.Errorf("export should belong to the taster, got %+v", st)
		}
		if len(history.updated) != 1 || history.updated[0].Sequence() != 1 {
			t.Fatalf("expected taster record to be marked, got %d updates", len(history.updated))
		}

		if _, err := s.Generate(ctx, models.SizeFull); err != nil {
			t.Fatalf("Generate() after export error = %v", err)
		}
		if st := s.Snapshot(); st.Remote != nil || st.ExportStatus != Idle || st.Record != 2 {
			t.Errorf("full playlist should start unexported, got %+v", st)
		}
	})

	t.Run("replaced playlist discards export result", func(t *testing.T) {
		block := make(chan struct{})
		history := &fakeHistory{}
		exp := &fakeExporter{ref: &RemotePlaylistRef{ID: "taster-remote"}, block: block}
		s := readySession(t, SessionOpts{Completer: &tu.FakeCompleter{Playlist: taster}, Exporter: exp, History: history})
		s.Generate(ctx, models.SizeTaster)

		done := make(chan error)
		go func() {
			_, err := s.Export(ctx, nil)
			done <- err
		}()
		waitFor(t, func() bool { return s.Snapshot().ExportStatus == Loading })

		s.mu.Lock()
		s.state.Playlist = &models.Playlist{Name: "Full One"}
		s.record = nil
		s.mu.Unlock()
		close(block)

		if err := <-done; !errors.Is(err, shared.ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
		if s.Snapshot().Remote != nil || len(history.updated) != 0 {
			t.Error("export of a replaced playlist should not be stored")
		}
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
