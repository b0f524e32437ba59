package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/urfave/cli/v3"
)

// Artist prints an artist's songs one per line as the stream delivers them.
func (r *Runner) Artist(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.StringArg("name"))
	if artist == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	policy, err := r.searchPolicy(cmd.String("policy"))
	if err != nil {
		return err
	}

	completer, err := r.geminiClient()
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	songs := []string{}
	if !useJSON {
		r.writePlainHeader(fmt.Sprintf("Songs by %s (%s)", artist, policy))
	}

	err = completer.FindSongsByArtist(ctx, artist, policy, func(title string) {
		songs = append(songs, title)
		if !useJSON {
			r.writePlain("%3d. %s\n", len(songs), title)
		}
	})
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(songs, true)
	}
	if len(songs) == 0 {
		r.writePlain("No songs found.\n")
	}
	return nil
}
