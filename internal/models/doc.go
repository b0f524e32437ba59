// Package models defines the domain types for collaborative playlist generation.
//
// The package contains three categories of types:
//
// 1. Listener input
//   - [UserPreferences] : one listener's favourite songs, artists and genres
//   - [SongWithArtist] : a title/artist pair parsed from "Title by Artist; ..." text
//
// 2. Generated output
//   - [Playlist] : a named, ordered list of [Song] values
//   - [Source] : which listener a song was chosen for
//   - [Size] : the taster or full playlist target
//   - [AppStage] : the position in the input/result stage machine
//
// 3. Persistent entities
//   - [PlaylistRecord] : a generated playlist saved to history
//
// Persistent entities implement the Model interface; the Repository[T] interface
// defines the CRUD operations their storage provides.
package models
