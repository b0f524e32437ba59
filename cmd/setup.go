package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes a config file from the template when none exists, then
// initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set GEMINI_API_KEY in .env or credentials.gemini.api_key in %s\n", configPath)
	r.writePlain("2. Set SPOTIFY_CLIENT_ID and run 'soundscout spotify auth' to enable export\n")
	return nil
}

// SetupSpotify records the public client settings needed for the PKCE flow.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			return err
		}
		config = shared.DefaultConfig()
	}

	config.Credentials.Spotify.ClientID = strings.TrimSpace(cmd.String("client-id"))
	if uri := cmd.String("redirect-uri"); uri != "" {
		config.Credentials.Spotify.RedirectURI = uri
	}
	if err := config.Validate("spotify"); err != nil {
		return err
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}
	r.logger.Info("spotify client saved", "path", configPath)

	r.writePlain("✓ Spotify client saved to %s\n", configPath)
	r.writePlain("  Redirect URI: %s\n", config.Credentials.Spotify.RedirectURI)
	r.writePlain("Run 'soundscout spotify auth' to connect your account\n")
	return nil
}
