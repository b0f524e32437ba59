package models

import "time"

// PlaylistRecord is a generated playlist saved to local history.
type PlaylistRecord struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time

	Playlist Playlist
	Vibe     string
	Size     Size
	First    UserPreferences
	Second   UserPreferences

	// Set once the playlist has been exported.
	SpotifyID  string
	SpotifyURL string
}

// NewPlaylistRecord creates an unsaved history entry for a generated playlist.
func NewPlaylistRecord(p Playlist, vibe string, size Size, first, second UserPreferences) *PlaylistRecord {
	now := time.Now()
	return &PlaylistRecord{
		createdAt: now,
		updatedAt: now,
		Playlist:  p,
		Vibe:      vibe,
		Size:      size,
		First:     first,
		Second:    second,
	}
}

func (r *PlaylistRecord) ID() string           { return r.id }
func (r *PlaylistRecord) Sequence() int        { return r.sequence }
func (r *PlaylistRecord) CreatedAt() time.Time { return r.createdAt }
func (r *PlaylistRecord) UpdatedAt() time.Time { return r.updatedAt }

func (r *PlaylistRecord) SetID(id string)          { r.id = id }
func (r *PlaylistRecord) SetSequence(seq int)      { r.sequence = seq }
func (r *PlaylistRecord) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *PlaylistRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Exported reports whether the playlist has been pushed to Spotify.
func (r *PlaylistRecord) Exported() bool { return r.SpotifyID != "" }

// MarkExported stores the remote playlist reference.
func (r *PlaylistRecord) MarkExported(id, url string) { r.SpotifyID, r.SpotifyURL = id, url }

// Validate checks the record has a named playlist and a known size.
func (r *PlaylistRecord) Validate() error {
	if err := r.Playlist.Validate(); err != nil {
		return err
	}
	if _, err := ParseSize(string(r.Size)); err != nil {
		return err
	}
	return nil
}
