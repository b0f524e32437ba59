package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/shared"
)

const playlistColumns = `id, sequence, name, vibe, size, songs, first_listener, second_listener,
	spotify_id, spotify_url, created_at, updated_at`

var _ models.Repository[*models.PlaylistRecord] = (*PlaylistRepository)(nil)

// PlaylistRepository implements [models.Repository] for playlist history.
//
// Songs and listener inputs are stored as JSON documents alongside the playlist row.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new record with a generated ID and sequence
func (r *PlaylistRepository) Create(record *models.PlaylistRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	songs, first, second, err := encodeRecord(record)
	if err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	_, err = r.db.Exec(`
		INSERT INTO playlists (id, sequence, name, vibe, size, songs, first_listener, second_listener,
			spotify_id, spotify_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		sequence,
		record.Playlist.Name,
		record.Vibe,
		string(record.Size),
		songs,
		first,
		second,
		record.SpotifyID,
		record.SpotifyURL,
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by ID, excluding soft-deleted rows
func (r *PlaylistRepository) Get(id string) (*models.PlaylistRecord, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE id = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a record by its sequence number.
func (r *PlaylistRepository) GetBySequence(sequence int) (*models.PlaylistRecord, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE sequence = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, sequence))
}

// Update rewrites the mutable columns of an existing record.
func (r *PlaylistRepository) Update(record *models.PlaylistRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	songs, first, second, err := encodeRecord(record)
	if err != nil {
		return err
	}

	record.SetUpdatedAt(time.Now())
	result, err := r.db.Exec(`
		UPDATE playlists
		SET name = ?, vibe = ?, size = ?, songs = ?, first_listener = ?, second_listener = ?,
			spotify_id = ?, spotify_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		record.Playlist.Name,
		record.Vibe,
		string(record.Size),
		songs,
		first,
		second,
		record.SpotifyID,
		record.SpotifyURL,
		record.UpdatedAt(),
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return requireAffected(result, record.ID())
}

// Delete soft-deletes a record by setting deleted_at
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(
		"UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return requireAffected(result, id)
}

// List retrieves records, newest first.
//
// Supported criteria:
//   - "exported" (bool): only records with (true) or without (false) a Spotify playlist
//   - "name" (string): case-insensitive substring match on the playlist name
//   - "limit" (int): maximum number of records
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.PlaylistRecord, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE deleted_at IS NULL"
	args := []any{}

	if exported, ok := criteria["exported"].(bool); ok {
		if exported {
			query += " AND spotify_id != ''"
		} else {
			query += " AND spotify_id = ''"
		}
	}
	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(name)+"%")
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	records := []*models.PlaylistRecord{}
	for rows.Next() {
		record, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playlists: %w", err)
	}
	return records, nil
}

// Record saves a freshly generated playlist to history.
func (r *PlaylistRepository) Record(p models.Playlist, vibe string, size models.Size, first, second models.UserPreferences) (*models.PlaylistRecord, error) {
	record := models.NewPlaylistRecord(p, vibe, size, first, second)
	if err := r.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.PlaylistRecord, error) {
	record, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	return record, err
}

func (r *PlaylistRepository) scanRow(row scanner) (*models.PlaylistRecord, error) {
	var (
		id, name, vibe, size  string
		songs, first, second  string
		spotifyID, spotifyURL string
		sequence              int
		createdAt, updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &name, &vibe, &size, &songs, &first, &second,
		&spotifyID, &spotifyURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	record := &models.PlaylistRecord{
		Playlist:   models.Playlist{Name: name},
		Vibe:       vibe,
		Size:       models.Size(size),
		SpotifyID:  spotifyID,
		SpotifyURL: spotifyURL,
	}
	if err := json.Unmarshal([]byte(songs), &record.Playlist.Songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs for playlist %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(first), &record.First); err != nil {
		return nil, fmt.Errorf("failed to decode first listener for playlist %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(second), &record.Second); err != nil {
		return nil, fmt.Errorf("failed to decode second listener for playlist %s: %w", id, err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	return record, nil
}

func encodeRecord(record *models.PlaylistRecord) (songs, first, second string, err error) {
	docs := make([]string, 3)
	for i, v := range []any{record.Playlist.Songs, record.First, record.Second} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to encode playlist: %w", err)
		}
		docs[i] = string(b)
	}
	return docs[0], docs[1], docs[2], nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}
