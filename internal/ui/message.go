package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgGenerated MsgKind = iota
	MsgProgressUpdate
	MsgExported
	MsgArtistSong
	MsgArtistDone
	MsgLoadingTick
)

type generatedData struct {
	gen      uint64
	playlist *models.Playlist
	err      error
}

type exportedData struct {
	ref *tasks.RemotePlaylistRef
	err error
}

type artistData struct {
	lookup uint64
	title  string
	err    error
}

// generatedMsg is the constructor for [MsgGenerated]
func generatedMsg(gen uint64, playlist *models.Playlist, err error) Msg {
	return Msg{kind: MsgGenerated, data: generatedData{gen, playlist, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportedMsg is the constructor for [MsgExported]
func exportedMsg(ref *tasks.RemotePlaylistRef, err error) Msg {
	return Msg{kind: MsgExported, data: exportedData{ref, err}}
}

// artistSongMsg is the constructor for [MsgArtistSong]
func artistSongMsg(lookup uint64, title string) Msg {
	return Msg{kind: MsgArtistSong, data: artistData{lookup: lookup, title: title}}
}

// artistDoneMsg is the constructor for [MsgArtistDone]
func artistDoneMsg(lookup uint64, err error) Msg {
	return Msg{kind: MsgArtistDone, data: artistData{lookup: lookup, err: err}}
}

// loadingTickMsg is the constructor for [MsgLoadingTick]
func loadingTickMsg(t time.Time) Msg {
	return Msg{kind: MsgLoadingTick, data: t}
}
