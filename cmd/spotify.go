package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/soundscout/internal/auth"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/repositories"
	"github.com/desertthunder/soundscout/internal/server"
	"github.com/desertthunder/soundscout/internal/services"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/desertthunder/soundscout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the callback server waits for the browser.
var authTimeout = 2 * time.Minute

// SpotifyAuth performs the PKCE authorization flow for Spotify.
//
// Starts a loopback HTTP server, opens the browser at the authorize page, and stores
// the access token once the redirect arrives.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	a, err := r.authenticator()
	if err != nil {
		return err
	}

	if err := r.doOAuth(ctx, a); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", r.config.Database.Path)
	r.writePlain("You can now use: soundscout generate --export\n")
	return nil
}

// SpotifyStatus reports whether a token is stored. No request is made to Spotify.
func (r *Runner) SpotifyStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.authStore()
	if err != nil {
		return err
	}

	if err := r.config.Validate("spotify"); err != nil {
		r.writePlain("⚠ %v\n", err)
	}

	if _, err := (auth.Tokens{Store: store}).AccessToken(); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.writePlain("✗ Spotify: not connected (run 'soundscout spotify auth')\n")
			return nil
		}
		return err
	}

	r.writePlain("✓ Spotify: connected\n")
	return nil
}

// SpotifyLogout forgets the stored token and any pending verifier.
func (r *Runner) SpotifyLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.authStore()
	if err != nil {
		return err
	}
	if err := auth.Forget(store); err != nil {
		return err
	}

	r.writePlain("✓ Spotify token removed\n")
	return nil
}

// SpotifyExport creates a Spotify playlist from a playlist JSON file or a history entry.
func (r *Runner) SpotifyExport(ctx context.Context, cmd *cli.Command) error {
	file := cmd.String("file")
	historyID := cmd.String("history-id")

	if file == "" && historyID == "" {
		return fmt.Errorf("%w: either --file or --history-id must be provided", shared.ErrMissingArgument)
	}
	if file != "" && historyID != "" {
		return fmt.Errorf("%w: cannot specify both --file and --history-id", shared.ErrInvalidArgument)
	}

	var playlist *models.Playlist
	var record *models.PlaylistRecord
	var repo *repositories.PlaylistRepository

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read playlist file: %w", err)
		}
		if playlist, err = services.DecodePlaylist(string(data)); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	} else {
		var err error
		if repo, err = r.playlists(); err != nil {
			return err
		}
		if record, err = findRecord(repo, historyID); err != nil {
			return err
		}
		playlist = &record.Playlist
	}

	name := playlist.Name
	if override := strings.TrimSpace(cmd.String("name")); override != "" {
		name = override
	}

	engine, err := r.exportEngine()
	if err != nil {
		return err
	}

	updates := make(chan tasks.ProgressUpdate, 16)
	wg := r.printProgress(updates)

	r.writePlain("→ Exporting %q (%d songs) to Spotify...\n", name, len(playlist.Songs))
	ref, err := engine.Export(ctx, playlist.Songs, name, updates)
	close(updates)
	wg.Wait()
	if err != nil {
		return err
	}

	if record != nil {
		record.MarkExported(ref.ID, ref.URL)
		if err := repo.Update(record); err != nil {
			r.logger.Warn("failed to save export to history", "error", err)
		}
	}

	r.writeExportSummary(ref)
	return nil
}

// callbackAddr derives the loopback listen address and path from the redirect URI,
// falling back to the server section of the config.
func (r *Runner) callbackAddr() (string, string) {
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || u.Host == "" {
		return addr, "/callback"
	}

	path := u.Path
	if path == "" {
		path = "/callback"
	}
	if u.Port() != "" {
		addr = u.Host
	}
	return addr, path
}

// doOAuth executes the authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, a *auth.Authenticator) error {
	state := shared.GenerateID()
	addr, path := r.callbackAddr()

	callbackLogger := shared.WithLogger(r.logger, "component", "callback")
	handler := server.NewCallbackHandler(a, path, state)
	handler.SetLogger(callbackLogger)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(callbackLogger))
	router.Handler(handler)

	httpServer := server.New(addr, router)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	authURL, err := a.BeginAuth(state)
	if err != nil {
		if !errors.Is(err, shared.ErrNavigation) {
			return err
		}
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.CallbackResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.State != auth.Authenticated {
		return fmt.Errorf("%w: no authorization code received", shared.ErrAuthFailed)
	}
	return nil
}
