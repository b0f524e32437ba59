package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/soundscout/internal/formatter"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/desertthunder/soundscout/internal/tasks"
	"github.com/urfave/cli/v3"
)

func readListener(cmd *cli.Command, prefix string) models.UserPreferences {
	var genres []string
	for _, g := range cmd.StringSlice(prefix + "-genres") {
		genres = append(genres, models.SplitList(g)...)
	}
	return models.UserPreferences{
		Songs:   models.ParseSongs(cmd.String(prefix + "-songs")),
		Artists: strings.TrimSpace(cmd.String(prefix + "-artists")),
		Genres:  genres,
	}
}

// newSession wires a session to the completion client and, when asked, history and export.
func (r *Runner) newSession(save, export bool) (*tasks.Session, error) {
	completer, err := r.geminiClient()
	if err != nil {
		return nil, err
	}

	policy, err := r.searchPolicy("")
	if err != nil {
		return nil, err
	}

	opts := tasks.SessionOpts{
		Completer: completer,
		Policy:    policy,
		Logger:    shared.WithLogger(r.logger, "component", "session"),
	}
	if save {
		history, err := r.playlists()
		if err != nil {
			return nil, err
		}
		opts.History = history
	}
	if export {
		engine, err := r.exportEngine()
		if err != nil {
			return nil, err
		}
		opts.Exporter = engine
	}
	return tasks.NewSession(opts), nil
}

// Generate runs both listener steps non-interactively and prints the playlist.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}
	size, err := models.ParseSize(cmd.String("size"))
	if err != nil {
		return err
	}

	export := cmd.Bool("export")
	session, err := r.newSession(cmd.Bool("save"), export)
	if err != nil {
		return err
	}

	if err := session.SetPreferences(models.FirstListener, readListener(cmd, "first")); err != nil {
		return err
	}
	if err := session.Next(); err != nil {
		return fmt.Errorf("first listener: %w", err)
	}
	if err := session.SetPreferences(models.SecondListener, readListener(cmd, "second")); err != nil {
		return err
	}
	session.SetVibe(cmd.String("vibe"))

	playlist, err := session.Generate(ctx, size)
	if err != nil {
		return err
	}

	state := session.Snapshot()
	if export {
		// JSON on stdout must stay parseable, so progress is not printed.
		quiet := format == formatter.FormatJSON && cmd.String("output") == ""
		if err := r.exportSession(ctx, session, quiet); err != nil {
			return err
		}
		state = session.Snapshot()
	}

	meta := formatter.Meta{Vibe: state.Vibe, Size: state.Size, Sequence: state.Record}
	if state.Remote != nil {
		meta.SpotifyURL = state.Remote.URL
	}
	return r.emit(format, playlist, meta, cmd.String("output"))
}

func (r *Runner) exportSession(ctx context.Context, session *tasks.Session, quiet bool) error {
	if quiet {
		ref, err := session.Export(ctx, nil)
		if err == nil {
			r.logger.Info("exported to spotify", "url", ref.URL, "added", ref.Added)
		}
		return err
	}

	updates := make(chan tasks.ProgressUpdate, 16)
	wg := r.printProgress(updates)

	r.writePlain("→ Exporting to Spotify...\n")
	ref, err := session.Export(ctx, updates)
	close(updates)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writeExportSummary(ref)
	return nil
}

func (r *Runner) writeExportSummary(ref *tasks.RemotePlaylistRef) {
	r.writePlain("✓ Added %d of %d songs to Spotify\n", ref.Added, ref.Requested)
	if ref.Resolved > ref.Added {
		r.writePlain("  %d more matched but only the first %d can be added\n", ref.Resolved-ref.Added, tasks.MaxTracksPerRequest)
	}
	r.writePlain("  %s\n\n", ref.URL)
}

// emit renders p and writes it to path, or to the runner's output when path is empty.
func (r *Runner) emit(format formatter.Format, p *models.Playlist, meta formatter.Meta, path string) error {
	data, err := formatter.Render(format, p, meta)
	if err != nil {
		return err
	}

	if path == "" {
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := formatter.WriteExport(path, data); err != nil {
		return err
	}
	r.writePlain("✓ Playlist written to %s\n", path)
	return nil
}
