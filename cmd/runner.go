package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/auth"
	"github.com/desertthunder/soundscout/internal/prompts"
	"github.com/desertthunder/soundscout/internal/repositories"
	"github.com/desertthunder/soundscout/internal/services"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/desertthunder/soundscout/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Clients and the database are created on first use so commands that need neither
// (e.g. history on a fresh checkout without keys) still work.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	completer services.Completer
	store     auth.Store
	db        *sql.DB
	factory   tasks.ServiceFactory
	navigate  func(string) error

	closers []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	Completer      services.Completer   // defaults to Gemini from config
	Store          auth.Store           // defaults to the SQLite key-value table
	DB             *sql.DB              // defaults to config.Database
	SpotifyFactory tasks.ServiceFactory // defaults to the Web API client
	Navigate       func(string) error   // defaults to the system browser
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Navigate == nil {
		opts.Navigate = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		completer:  opts.Completer,
		store:      opts.Store,
		db:         opts.DB,
		factory:    opts.SpotifyFactory,
		navigate:   opts.Navigate,
	}
	if r.factory == nil {
		r.factory = func(ctx context.Context, token string) services.MusicService {
			return services.NewSpotifyService(ctx, token, r.config.Credentials.Spotify.APIURL, shared.WithLogger(r.logger, "component", "spotify"))
		}
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, generateCommand, artistCommand, spotifyCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and the clients it creates afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database and any log files opened by commands.
func (r *Runner) Close() error {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i].Close()
	}
	r.closers = nil
	return nil
}

// database opens (and migrates) the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	r.db = db
	r.closers = append(r.closers, db)
	return db, nil
}

func (r *Runner) authStore() (auth.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.store = repositories.NewKVRepository(db)
	return r.store, nil
}

func (r *Runner) playlists() (*repositories.PlaylistRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewPlaylistRepository(db), nil
}

func (r *Runner) geminiClient() (services.Completer, error) {
	if r.completer != nil {
		return r.completer, nil
	}
	if err := r.config.Validate("gemini"); err != nil {
		return nil, err
	}

	client, err := services.NewGeminiService(r.config.Credentials.Gemini, r.httpClient, shared.WithLogger(r.logger, "component", "gemini"))
	if err != nil {
		return nil, err
	}
	r.completer = client
	return client, nil
}

func (r *Runner) authenticator() (*auth.Authenticator, error) {
	if err := r.config.Validate("spotify"); err != nil {
		return nil, err
	}
	store, err := r.authStore()
	if err != nil {
		return nil, err
	}

	sp := r.config.Credentials.Spotify
	return auth.New(store, auth.Options{
		ClientID:    sp.ClientID,
		RedirectURI: sp.RedirectURI,
		Scopes:      sp.Scopes,
		AuthURL:     sp.AuthURL,
		TokenURL:    sp.TokenURL,
		Navigate:    r.navigate,
		Logger:      shared.WithLogger(r.logger, "component", "spotify-auth"),
	})
}

func (r *Runner) exportEngine() (*tasks.ExportEngine, error) {
	store, err := r.authStore()
	if err != nil {
		return nil, err
	}

	opts := tasks.ExportOpts{Concurrency: r.config.Search.Concurrency}
	if limit := r.config.Search.RateLimit; limit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(limit), 1)
	}
	return tasks.NewExportEngine(auth.Tokens{Store: store}, r.factory, opts, shared.WithLogger(r.logger, "component", "export")), nil
}

func (r *Runner) searchPolicy(flag string) (prompts.SearchPolicy, error) {
	if flag == "" {
		flag = r.config.Search.Policy
	}
	return prompts.ParseSearchPolicy(flag)
}

// printProgress writes progress updates until the channel is closed.
func (r *Runner) printProgress(updates <-chan tasks.ProgressUpdate) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range updates {
			r.writePlain("  %s\n", u.Message)
		}
	}()
	return &wg
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
