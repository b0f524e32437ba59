package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSource = errors.New("unknown song source")
	ErrUnknownSize   = errors.New("unknown playlist size")
	ErrEmptyName     = errors.New("playlist name is required")
)

// Source records which listener a song was picked for.
type Source int

const (
	FirstListener Source = iota
	SecondListener
	Both
)

// Label returns the tag used when talking to the completion service.
func (s Source) Label() string {
	switch s {
	case FirstListener:
		return "Listener 1"
	case SecondListener:
		return "Listener 2"
	default:
		return "Both"
	}
}

func (s Source) String() string { return s.Label() }

// SourceLabels lists the accepted wire tags in declaration order.
func SourceLabels() []string {
	return []string{FirstListener.Label(), SecondListener.Label(), Both.Label()}
}

// ParseSource maps external vocabulary ("Listener 1", "User 2", "Both", ...) onto a [Source].
func ParseSource(s string) (Source, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "listener1", "user1", "first", "firstlistener", "1":
		return FirstListener, nil
	case "listener2", "user2", "second", "secondlistener", "2":
		return SecondListener, nil
	case "both", "shared":
		return Both, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

func (s *Source) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownSource, data)
	}
	parsed, err := ParseSource(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Song is one generated playlist entry.
type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Source Source `json:"source"`
}

// Playlist is a generated, ordered list of songs.
//
// An empty song list is valid; a blank name is not.
type Playlist struct {
	Name  string `json:"playlistName"`
	Songs []Song `json:"songs"`
}

// Validate reports whether the playlist carries a usable name.
func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// CountBySource tallies songs per source.
func (p *Playlist) CountBySource() map[Source]int {
	counts := make(map[Source]int, 3)
	for _, s := range p.Songs {
		counts[s.Source]++
	}
	return counts
}

// Size selects the playlist length target.
type Size string

const (
	SizeTaster Size = "taster"
	SizeFull   Size = "full"
)

// ParseSize accepts "taster" or "full" in any case.
func ParseSize(s string) (Size, error) {
	switch Size(strings.ToLower(strings.TrimSpace(s))) {
	case SizeTaster:
		return SizeTaster, nil
	case SizeFull:
		return SizeFull, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSize, s)
}

// Range returns the inclusive song count target.
func (s Size) Range() (lo, hi int) {
	if s == SizeFull {
		return 20, 25
	}
	return 3, 5
}

// AppStage is the position in the input and result flow.
type AppStage int

const (
	InputListener1 AppStage = iota
	InputListener2
	TasterResult
	FullPlaylist
)

func (s AppStage) String() string {
	switch s {
	case InputListener1:
		return "input-listener-1"
	case InputListener2:
		return "input-listener-2"
	case TasterResult:
		return "taster-result"
	case FullPlaylist:
		return "full-playlist"
	default:
		return "unknown"
	}
}

// ResultStage returns the stage a successful generation of size lands in.
func (s Size) ResultStage() AppStage {
	if s == SizeFull {
		return FullPlaylist
	}
	return TasterResult
}
