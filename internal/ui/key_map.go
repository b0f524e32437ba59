package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Input stages only bind control keys so plain letters reach the text fields.
type keyMap struct {
	next      key.Binding
	prev      key.Binding
	left      key.Binding
	right     key.Binding
	toggle    key.Binding
	submit    key.Binding
	full      key.Binding
	fullKey   key.Binding
	lookup    key.Binding
	cycle     key.Binding
	addSong   key.Binding
	export    key.Binding
	back      key.Binding
	reset     key.Binding
	restart   key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "genre")),
		right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "genre")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle genre")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		full:      key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "full playlist")),
		fullKey:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "full playlist")),
		lookup:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "artist songs")),
		cycle:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next suggestion")),
		addSong:   key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "add suggestion")),
		export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export to Spotify")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		reset:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "start over")),
		restart:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.forceQuit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.left, k.right, k.toggle},
		{k.submit, k.full, k.lookup, k.cycle, k.addSong},
		{k.export, k.back, k.reset, k.forceQuit},
	}
}
