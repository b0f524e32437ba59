package models

import (
	"strings"
)

const (
	songSeparator   = ";"
	artistSeparator = " by "
)

// SongWithArtist is a single favourite song as entered by a listener.
type SongWithArtist struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// String renders the pair as "Title by Artist", or just the title when no artist is known.
func (s SongWithArtist) String() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Title + artistSeparator + s.Artist
}

// ParseSongs splits "Title by Artist; Title by Artist" text into pairs.
//
// Each entry is split on the last case-insensitive " by ", so titles that themselves
// contain the word keep it. Blank entries are skipped.
func ParseSongs(s string) []SongWithArtist {
	var songs []SongWithArtist
	for entry := range strings.SplitSeq(s, songSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		i := lastSeparator(entry)
		if i < 0 {
			songs = append(songs, SongWithArtist{Title: entry})
			continue
		}

		songs = append(songs, SongWithArtist{
			Title:  strings.TrimSpace(entry[:i]),
			Artist: strings.TrimSpace(entry[i+len(artistSeparator):]),
		})
	}
	return songs
}

// FormatSongs joins songs into the semicolon-delimited form accepted by [ParseSongs].
//
// Pairs without a title are skipped since they cannot be parsed back.
func FormatSongs(songs []SongWithArtist) string {
	parts := make([]string, 0, len(songs))
	for _, s := range songs {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		parts = append(parts, s.String())
	}
	return strings.Join(parts, songSeparator+" ")
}

func lastSeparator(entry string) int {
	n := len(artistSeparator)
	for i := len(entry) - n; i >= 0; i-- {
		if strings.EqualFold(entry[i:i+n], artistSeparator) {
			return i
		}
	}
	return -1
}

// UserPreferences holds one listener's input.
type UserPreferences struct {
	Songs   []SongWithArtist `json:"songs"`
	Artists string           `json:"artists"`
	Genres  []string         `json:"genres"`
}

// HasSignal reports whether the listener supplied anything the generator can use.
func (p UserPreferences) HasSignal() bool {
	return len(p.Songs) > 0 || strings.TrimSpace(p.Artists) != "" || len(p.Genres) > 0
}

// SongsText renders the listener's songs in the delimited text form.
func (p UserPreferences) SongsText() string {
	return FormatSongs(p.Songs)
}

// ToggleGenre adds genre to set when absent and removes it when present.
//
// Comparison is case-insensitive; the input slice is never modified.
func ToggleGenre(set []string, genre string) []string {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return append([]string(nil), set...)
	}

	out := make([]string, 0, len(set)+1)
	removed := false
	for _, g := range set {
		if strings.EqualFold(g, genre) {
			removed = true
			continue
		}
		out = append(out, g)
	}

	if !removed {
		out = append(out, genre)
	}
	return out
}

// SplitList splits comma-separated text into trimmed, non-empty items.
func SplitList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Genres offered for quick selection.
var Genres = []string{
	"Pop", "Rock", "Hip Hop", "R&B", "Electronic", "Indie",
	"Jazz", "Classical", "Country", "Folk", "Metal", "Latin",
	"K-Pop", "Soul", "Funk", "Reggae", "Blues", "Ambient",
}
