package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundscout/internal/models"
)

type field int

const (
	fieldSongs field = iota
	fieldArtists
	fieldGenres
	fieldVibe
)

// listenerForm holds the text inputs for one listener's step.
//
// Genres are not kept here; they live in the session and are toggled there.
type listenerForm struct {
	songs    textinput.Model
	artists  textinput.Model
	vibe     textinput.Model
	focus    field
	cursor   int
	withVibe bool
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 60
	in.Prompt = "› "
	return in
}

func newListenerForm() listenerForm {
	f := listenerForm{
		songs:   newInput("Teardrop by Massive Attack; Motion Sickness by Phoebe Bridgers", 1000),
		artists: newInput("Björk, Radiohead", 500),
		vibe:    newInput("rainy Sunday morning, cooking together", 200),
	}
	f.setFocus(fieldSongs)
	return f
}

// load replaces the inputs with a listener's saved preferences.
func (f *listenerForm) load(p models.UserPreferences, vibe string, withVibe bool) {
	f.songs.SetValue(p.SongsText())
	f.artists.SetValue(p.Artists)
	f.vibe.SetValue(vibe)
	f.withVibe = withVibe
	f.cursor = 0
	f.setFocus(fieldSongs)
}

// preferences reads the inputs back, keeping genres from the session.
func (f listenerForm) preferences(genres []string) models.UserPreferences {
	return models.UserPreferences{
		Songs:   models.ParseSongs(f.songs.Value()),
		Artists: strings.TrimSpace(f.artists.Value()),
		Genres:  genres,
	}
}

func (f *listenerForm) fields() int {
	if f.withVibe {
		return int(fieldVibe) + 1
	}
	return int(fieldGenres) + 1
}

func (f *listenerForm) setFocus(to field) tea.Cmd {
	f.focus = to
	f.songs.Blur()
	f.artists.Blur()
	f.vibe.Blur()

	switch to {
	case fieldSongs:
		return f.songs.Focus()
	case fieldArtists:
		return f.artists.Focus()
	case fieldVibe:
		return f.vibe.Focus()
	}
	return nil
}

// move shifts focus by delta, wrapping around.
func (f *listenerForm) move(delta int) tea.Cmd {
	n := f.fields()
	return f.setFocus(field(((int(f.focus)+delta)%n + n) % n))
}

// moveGenre shifts the genre cursor by delta, wrapping around.
func (f *listenerForm) moveGenre(delta int) {
	n := len(models.Genres)
	f.cursor = ((f.cursor+delta)%n + n) % n
}

func (f *listenerForm) genre() string {
	return models.Genres[f.cursor]
}

// update forwards a message to the focused text input.
func (f *listenerForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldSongs:
		f.songs, cmd = f.songs.Update(msg)
	case fieldArtists:
		f.artists, cmd = f.artists.Update(msg)
	case fieldVibe:
		f.vibe, cmd = f.vibe.Update(msg)
	}
	return cmd
}

// lastArtist returns the most recently typed artist, used for song suggestions.
func (f listenerForm) lastArtist() string {
	artists := models.SplitList(f.artists.Value())
	if len(artists) == 0 {
		return ""
	}
	return artists[len(artists)-1]
}

// addSong appends a song to the songs input unless it is already listed.
func (f *listenerForm) addSong(song models.SongWithArtist) {
	songs := models.ParseSongs(f.songs.Value())
	for _, s := range songs {
		if strings.EqualFold(s.Title, song.Title) && strings.EqualFold(s.Artist, song.Artist) {
			return
		}
	}
	f.songs.SetValue(models.FormatSongs(append(songs, song)))
	f.songs.CursorEnd()
}

func (f listenerForm) label(to field, text string) string {
	if f.focus == to {
		return styles.focused.Render("▸ " + text)
	}
	return styles.label.Render("  " + text)
}

func (f listenerForm) view(genres []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", f.label(fieldSongs, "Favourite songs (Title by Artist; ...)"), f.songs.View())
	fmt.Fprintf(&b, "%s\n%s\n\n", f.label(fieldArtists, "Favourite artists (comma separated)"), f.artists.View())
	fmt.Fprintf(&b, "%s\n%s\n", f.label(fieldGenres, "Genres"), f.genreView(genres))

	if f.withVibe {
		fmt.Fprintf(&b, "\n%s\n%s\n", f.label(fieldVibe, "Shared vibe"), f.vibe.View())
	}
	return b.String()
}

func (f listenerForm) genreView(selected []string) string {
	picked := make(map[string]bool, len(selected))
	for _, g := range selected {
		picked[strings.ToLower(g)] = true
	}

	chips := make([]string, 0, len(models.Genres))
	for i, g := range models.Genres {
		text := g
		if f.focus == fieldGenres && i == f.cursor {
			text = "[" + g + "]"
		}
		if picked[strings.ToLower(g)] {
			chips = append(chips, styles.picked.Render(text))
		} else {
			chips = append(chips, styles.chip.Render(text))
		}
	}

	var rows []string
	for i := 0; i < len(chips); i += 6 {
		rows = append(rows, strings.Join(chips[i:min(i+6, len(chips))], " "))
	}
	return strings.Join(rows, "\n")
}
