package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/desertthunder/soundscout/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for building a playlist together.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.closers = append(r.closers, closer)
	shared.SetLogLevel(fileLogger, shared.ParseLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	// History and export both live in the database; the TUI still runs without them.
	_, dbErr := r.database()
	if dbErr != nil {
		fileLogger.Warn("history and export disabled", "error", dbErr)
	}

	session, err := r.newSession(dbErr == nil, dbErr == nil)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, session, shared.WithLogger(fileLogger, "component", "tui"))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
