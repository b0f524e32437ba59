package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/soundscout/internal/formatter"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/repositories"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of a saved playlist in listings.
type historyEntry struct {
	ID         string      `json:"id"`
	Sequence   int         `json:"sequence"`
	Name       string      `json:"name"`
	Vibe       string      `json:"vibe"`
	Size       models.Size `json:"size"`
	Songs      int         `json:"songs"`
	SpotifyURL string      `json:"spotifyUrl,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// findRecord accepts either a record ID or its history number ("7" or "#7").
func findRecord(repo *repositories.PlaylistRepository, ref string) (*models.PlaylistRecord, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(ref)
}

// HistoryList lists saved playlists, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.playlists()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if cmd.IsSet("exported") {
		criteria["exported"] = cmd.Bool("exported")
	}
	if name := cmd.String("name"); name != "" {
		criteria["name"] = name
	}

	records, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, historyEntry{
				ID:         rec.ID(),
				Sequence:   rec.Sequence(),
				Name:       rec.Playlist.Name,
				Vibe:       rec.Vibe,
				Size:       rec.Size,
				Songs:      len(rec.Playlist.Songs),
				SpotifyURL: rec.SpotifyURL,
				CreatedAt:  rec.CreatedAt(),
			})
		}
		return r.writeJSON(entries, true)
	}

	if len(records) == 0 {
		r.writePlain("No saved playlists.\n")
		return nil
	}

	r.writePlain("Found %d playlists:\n\n", len(records))
	for _, rec := range records {
		r.writePlain("#%d. %s\n", rec.Sequence(), rec.Playlist.Name)
		r.writePlain("   Vibe: %s\n", rec.Vibe)
		r.writePlain("   Size: %s (%d songs)\n", rec.Size, len(rec.Playlist.Songs))
		r.writePlain("   Created: %s\n", rec.CreatedAt().Format("2006-01-02 15:04"))
		if rec.Exported() {
			r.writePlain("   Spotify: %s\n", rec.SpotifyURL)
		}
		r.writePlain("   ID: %s\n\n", rec.ID())
	}
	return nil
}

// HistoryShow renders one saved playlist.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.playlists()
	if err != nil {
		return err
	}
	record, err := findRecord(repo, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	return r.emit(format, &record.Playlist, formatter.MetaFromRecord(record), "")
}

// HistoryDelete removes a saved playlist from history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.playlists()
	if err != nil {
		return err
	}
	record, err := findRecord(repo, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := repo.Delete(record.ID()); err != nil {
		return err
	}

	r.writePlain("✓ Removed #%d %s\n", record.Sequence(), record.Playlist.Name)
	return nil
}
