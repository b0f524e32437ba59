// Package repositories implements SQLite persistence for the local state of the tool.
//
// Key Implementations:
//   - [KVRepository] : string key-value store backing the Spotify authorization flow across processes
//   - [PlaylistRepository] : history of generated playlists, with their inputs and export references
//
// Playlists are soft deleted via deleted_at and excluded from queries by default.
// Sequence numbers provide stable, human-readable ordering (e.g. playlist #15) independent of UUIDs.
// The [NextSequence] function atomically increments per-table counters in dedicated sequence tables.
package repositories
