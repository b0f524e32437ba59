// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/soundscout/internal/formatter"
	"github.com/urfave/cli/v3"
)

func listenerFlags(prefix, who string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  prefix + "-songs",
			Usage: "Favourite songs for " + who + ` ("Title by Artist; Title by Artist")`,
		},
		&cli.StringFlag{
			Name:  prefix + "-artists",
			Usage: "Favourite artists for " + who + " (comma separated)",
		},
		&cli.StringSliceFlag{
			Name:  prefix + "-genres",
			Usage: "Genres for " + who + " (repeat or comma separate)",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (" + strings.Join(formatter.Formats, ", ") + ")",
		Value:   string(formatter.FormatText),
	}
}

// generateCommand builds a playlist from both listeners' input.
func generateCommand(r *Runner) *cli.Command {
	flags := append(listenerFlags("first", "the first listener"), listenerFlags("second", "the second listener")...)
	flags = append(flags,
		&cli.StringFlag{
			Name:     "vibe",
			Usage:    "Shared mood or setting for the playlist",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "size",
			Usage: "Playlist size (taster or full)",
			Value: "taster",
		},
		formatFlag(),
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Shorthand for --format json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the playlist to a file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save the playlist to local history",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "export",
			Usage: "Create the playlist on Spotify after generating it",
		},
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a shared playlist for two listeners",
		Flags:   flags,
		Action:  r.Generate,
	}
}

// artistCommand streams an artist's songs as they arrive.
func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "List songs by an artist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "name",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Search policy (fast or alphabetical); defaults to search.policy",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output a JSON array once the lookup completes",
			},
		},
		Action: r.Artist,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account and export operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Connect a Spotify account using OAuth2 with PKCE",
				Action: r.SpotifyAuth,
			},
			{
				Name:   "status",
				Usage:  "Show whether a Spotify account is connected",
				Action: r.SpotifyStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored Spotify token",
				Action: r.SpotifyLogout,
			},
			{
				Name:  "export",
				Usage: "Create a Spotify playlist from a saved or generated playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Playlist JSON file (as written by --format json)",
					},
					&cli.StringFlag{
						Name:  "history-id",
						Usage: "History ID or number of a saved playlist",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Override the playlist name",
					},
				},
				Action: r.SpotifyExport,
			},
		},
	}
}

// historyCommand handles saved playlists
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "Browse previously generated playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved playlists, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "exported",
						Usage: "Only show playlists that were sent to Spotify",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Filter by playlist name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a saved playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a saved playlist from history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if needed, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "spotify",
				Usage: "Store the Spotify client ID and redirect URI in the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:     "client-id",
						Usage:    "Client ID from the Spotify developer dashboard",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "redirect-uri",
						Usage: "Redirect URI registered for the app",
					},
				},
				Action: r.SetupSpotify,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive flow.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist builder",
		Action:  r.TUI,
	}
}
