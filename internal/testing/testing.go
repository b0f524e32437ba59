// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/prompts"
)

// FakeCompleter is a scripted test double for services.Completer.
//
// Block, when set, is received from before GeneratePlaylist returns so tests can
// interleave other calls with an in-flight generation.
type FakeCompleter struct {
	mu sync.Mutex

	Playlist *models.Playlist
	Err      error
	Songs    []string
	Block    chan struct{}

	Calls      int
	LastVibe   string
	LastSize   models.Size
	LastArtist string
	LastPolicy prompts.SearchPolicy
	LastFirst  models.UserPreferences
	LastSecond models.UserPreferences
}

func (f *FakeCompleter) GeneratePlaylist(ctx context.Context, first, second models.UserPreferences, vibe string, size models.Size) (*models.Playlist, error) {
	f.mu.Lock()
	f.Calls++
	f.LastFirst, f.LastSecond, f.LastVibe, f.LastSize = first, second, vibe, size
	block, playlist, err := f.Block, f.Playlist, f.Err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	copied := *playlist
	return &copied, nil
}

func (f *FakeCompleter) FindSongsByArtist(ctx context.Context, artist string, policy prompts.SearchPolicy, onSong func(string)) error {
	f.mu.Lock()
	f.Calls++
	f.LastArtist, f.LastPolicy = artist, policy
	songs, err, block := f.Songs, f.Err, f.Block
	f.mu.Unlock()

	for i, s := range songs {
		if i == 1 && block != nil {
			<-block
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onSong(s)
	}
	return err
}

// CallCount returns the number of completer calls made so far.
func (f *FakeCompleter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
