package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/soundscout/internal/models"
)

var styles = NewPalette("#C026D3", "#1DB954", "#E22134", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	label   lipgloss.Style
	focused lipgloss.Style
	chip    lipgloss.Style
	picked  lipgloss.Style
	sources map[models.Source]lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(h),
		label:   NewStyle(h),
		focused: NewBold(t),
		chip:    NewStyle(h).Padding(0, 1),
		picked:  NewBold("#FFFFFF").Background(lipgloss.Color(t)).Padding(0, 1),
		sources: map[models.Source]lipgloss.Style{
			models.FirstListener:  NewStyle("#38BDF8"),
			models.SecondListener: NewStyle("#F472B6"),
			models.Both:           NewBold(s),
		},
	}
}

// Source renders a song's listener tag in that listener's color.
func (p *Palette) Source(s models.Source) string {
	return p.sources[s].Render(s.Label())
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
