// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows the session's stages:
//  1. First listener: songs, artists and genre picks
//  2. Second listener: the same fields plus the shared vibe
//  3. Taster result: a short preview, with the option to build the full playlist
//  4. Full playlist: the final list, ready for export to Spotify
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the Msg union type.
// Generation, export and artist lookups run in commands outside Update. Export progress
// and streamed artist songs arrive over channels read one message at a time.
//
// Text fields take plain keys, so input stages bind control keys (ctrl+f, ctrl+l, ctrl+r)
// and result stages use single letters (f, e, r, q) with contextual help from charmbracelet/bubbles/help.
package ui
