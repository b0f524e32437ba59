package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/auth"
	"github.com/desertthunder/soundscout/internal/shared"
)

// RedirectHandler completes the authorization flow from redirect query parameters ([auth.Authenticator]).
type RedirectHandler interface {
	HandleRedirect(ctx context.Context, query url.Values) (auth.State, error)
}

// CallbackResult is the outcome of the single redirect the handler accepts.
type CallbackResult struct {
	State auth.State
	err   error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles the OAuth redirect for the authorization code flow.
// Implements the Handler interface for registration with a Router.
type CallbackHandler struct {
	auth    RedirectHandler
	path    string
	state   string
	results chan CallbackResult
	logger  *log.Logger

	once sync.Once
	mu   sync.Mutex
	hit  bool
}

// NewCallbackHandler creates a handler serving path that expects state back from the authorize page.
//
// An empty state disables the check.
func NewCallbackHandler(a RedirectHandler, path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		auth:    a,
		path:    path,
		state:   state,
		results: make(chan CallbackResult, 1),
		logger:  log.New(io.Discard),
	}
}

// SetLogger sets the logger used for page rendering failures.
func (h *CallbackHandler) SetLogger(logger *log.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET " + h.path}
}

// ServeHTTP processes the first redirect and rejects any later one.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if h.state != "" && query.Get("state") != h.state {
		h.Send(CallbackResult{State: auth.AuthError, err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		h.render(w, http.StatusBadRequest, failurePage("The sign-in request did not match. Start again from the terminal."))
		return
	}

	state, err := h.auth.HandleRedirect(r.Context(), query)
	if err != nil {
		h.Send(CallbackResult{State: state, err: err})

		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrMissingVerifier) {
			status = http.StatusBadRequest
		}
		h.render(w, status, failurePage(redirectMessage(err)))
		return
	}

	h.Send(CallbackResult{State: state})
	if state != auth.Authenticated {
		h.render(w, http.StatusBadRequest, failurePage("No authorization code was received."))
		return
	}
	h.render(w, http.StatusOK, page{
		Title:   "Spotify Connected",
		Message: "You can close this window and return to the terminal.",
		Success: true,
	})
}

// Send publishes the result (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

type page struct {
	Title   string
	Message string
	Success bool
}

// redirectMessage keeps internal causes such as storage errors off the browser page.
func redirectMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrMissingVerifier), errors.Is(err, shared.ErrTokenExchangeFailed):
		return shared.UserMessage(err)
	}
	return "Spotify sign-in could not be completed. Check the terminal for details."
}

func failurePage(msg string) page {
	return page{Title: "Spotify Sign-in Failed", Message: msg}
}

var pageTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        h1.ok { color: #1DB954; }
        h1.err { color: #E22134; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 class="{{if .Success}}ok{{else}}err{{end}}">{{if .Success}}✓{{else}}✗{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func (h *CallbackHandler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		h.logger.Error("failed to render callback page", "title", p.Title, "error", err)
	}
}
