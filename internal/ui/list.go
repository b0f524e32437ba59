package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/soundscout/internal/models"
)

var (
	_ list.Item = songItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	position int
	song     models.Song
}

func (i songItem) FilterValue() string { return i.song.Title + " " + i.song.Artist }
func (i songItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.song.Title) }
func (i songItem) Description() string {
	return fmt.Sprintf("%s • %s", i.song.Artist, styles.Source(i.song.Source))
}

func songItems(p *models.Playlist) []list.Item {
	if p == nil {
		return nil
	}
	items := make([]list.Item, len(p.Songs))
	for i, s := range p.Songs {
		items[i] = songItem{position: i + 1, song: s}
	}
	return items
}

func newResultList(p *models.Playlist, width, height int) list.Model {
	l := list.New(songItems(p), list.NewDefaultDelegate(), width, height)
	if p != nil {
		l.Title = p.Name
	}
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}
