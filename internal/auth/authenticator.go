// Package auth implements the Spotify OAuth 2.0 Authorization Code flow with PKCE.
//
// The flow spans two legs separated by a browser redirect. [Authenticator.BeginAuth] stores a fresh
// code verifier and sends the user to the authorize page; [Authenticator.HandleRedirect] runs when the
// redirect comes back and exchanges the code for an access token. Both legs share state only through
// a [Store], so they may run in different processes.
//
// No client secret is used and tokens are never refreshed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/shared"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes grants playlist creation on the user's behalf.
var DefaultScopes = []string{"playlist-modify-public", "playlist-modify-private"}

// State is the authenticator's position in the flow.
type State int

const (
	Unauthenticated State = iota
	PendingRedirect
	CodeReceived
	Authenticated
	AuthError
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case PendingRedirect:
		return "pending_redirect"
	case CodeReceived:
		return "code_received"
	case Authenticated:
		return "authenticated"
	case AuthError:
		return "error"
	default:
		return "unknown"
	}
}

// Options configures an [Authenticator].
type Options struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	AuthURL     string
	TokenURL    string

	// Navigate opens the authorize URL, usually in the system browser.
	Navigate func(url string) error
	Logger   *log.Logger
}

// Authenticator drives the PKCE flow for a single public client.
type Authenticator struct {
	config   *oauth2.Config
	store    Store
	navigate func(string) error
	logger   *log.Logger

	mu    sync.Mutex
	state State
}

// New creates an Authenticator persisting to store.
func New(store Store, opts Options) (*Authenticator, error) {
	if strings.TrimSpace(opts.ClientID) == "" {
		return nil, fmt.Errorf("%w: spotify client id", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		return nil, fmt.Errorf("%w: redirect uri", shared.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", shared.ErrInvalidArgument)
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	endpoint := oauth2.Endpoint{AuthURL: opts.AuthURL, TokenURL: opts.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = authURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = tokenURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      scopes,
			Endpoint:    endpoint,
		},
		store:    store,
		navigate: opts.Navigate,
		logger:   logger,
	}, nil
}

// State returns the current flow state.
func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Authenticator) setState(s State) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
	return s
}

// AuthURL builds the authorize URL for a verifier without touching the store.
func (a *Authenticator) AuthURL(state, verifier string) string {
	return a.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", Challenge(verifier)),
	)
}

// BeginAuth stores a new code verifier and navigates to the authorize page.
//
// The URL is returned even when navigation fails, wrapped in [shared.ErrNavigation],
// so the caller can show it to the user.
func (a *Authenticator) BeginAuth(state string) (string, error) {
	verifier, err := NewVerifier()
	if err != nil {
		a.setState(AuthError)
		return "", err
	}
	if err := a.store.Set(KeyVerifier, verifier); err != nil {
		a.setState(AuthError)
		return "", fmt.Errorf("failed to store code verifier: %w", err)
	}

	u := a.AuthURL(state, verifier)
	a.setState(PendingRedirect)

	if a.navigate != nil {
		if err := a.navigate(u); err != nil {
			a.logger.Warn("could not open browser", "error", err)
			if !errors.Is(err, shared.ErrNavigation) {
				err = fmt.Errorf("%w: %v", shared.ErrNavigation, err)
			}
			return u, err
		}
	}
	return u, nil
}

// CompleteAuth exchanges an authorization code for an access token and stores it.
func (a *Authenticator) CompleteAuth(ctx context.Context, code string) error {
	a.setState(CodeReceived)

	verifier, ok, err := a.store.Get(KeyVerifier)
	if err != nil {
		a.setState(AuthError)
		return fmt.Errorf("failed to read code verifier: %w", err)
	}
	if !ok || verifier == "" {
		a.setState(AuthError)
		return fmt.Errorf("%w: start the Spotify sign-in again", shared.ErrMissingVerifier)
	}
	// the verifier is single use, even when the exchange fails
	if err := a.store.Delete(KeyVerifier); err != nil {
		a.logger.Warn("failed to clear code verifier", "error", err)
	}

	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		a.setState(AuthError)
		a.logger.Error("token exchange failed", "error", err)
		return fmt.Errorf("%w: %s", shared.ErrTokenExchangeFailed, exchangeDescription(err))
	}

	if err := a.store.Set(KeyAccessToken, token.AccessToken); err != nil {
		a.setState(AuthError)
		return fmt.Errorf("failed to store access token: %w", err)
	}

	a.setState(Authenticated)
	a.logger.Info("spotify authorization complete")
	return nil
}

func exchangeDescription(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if re.ErrorCode != "" {
			return re.ErrorCode
		}
		if re.Response != nil {
			return re.Response.Status
		}
	}
	return err.Error()
}

// HandleRedirect resolves the flow from the redirect's query parameters.
//
// An "error" parameter fails the flow, a "code" parameter is exchanged, and with neither
// a previously stored token counts as authenticated without any network call.
func (a *Authenticator) HandleRedirect(ctx context.Context, query url.Values) (State, error) {
	if e := query.Get("error"); e != "" {
		return a.setState(AuthError), fmt.Errorf("%w: %s", shared.ErrAuthFailed, e)
	}

	if code := query.Get("code"); code != "" {
		err := a.CompleteAuth(ctx, code)
		return a.State(), err
	}

	if _, err := a.AccessToken(); err == nil {
		return a.setState(Authenticated), nil
	}
	return a.setState(Unauthenticated), nil
}

// AccessToken returns the stored token or [shared.ErrNotAuthenticated].
func (a *Authenticator) AccessToken() (string, error) {
	return Tokens{Store: a.store}.AccessToken()
}

// Logout forgets the stored token and any pending verifier.
func (a *Authenticator) Logout() error {
	if err := Forget(a.store); err != nil {
		return err
	}
	a.setState(Unauthenticated)
	return nil
}
