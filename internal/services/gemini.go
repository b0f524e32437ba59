// Gemini REST implementation of [Completer]
//
// Request and response shapes follow https://ai.google.dev/api/generate-content
package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/prompts"
	"github.com/desertthunder/soundscout/internal/shared"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-2.5-flash"

	maxEventSize = 1 << 20
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   *prompts.Schema `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

// GeminiError is the error envelope returned by the API.
type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *GeminiError) Error() string {
	return fmt.Sprintf("gemini %d %s: %s", e.Code, e.Status, e.Message)
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *promptFeedback   `json:"promptFeedback,omitempty"`
	Error          *GeminiError      `json:"error,omitempty"`
}

// text concatenates the parts of the first candidate.
func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// GeminiService talks to the Gemini generateContent endpoints.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewGeminiService creates a completion client from config.
//
// An empty model or base URL falls back to the public defaults; a nil client uses [http.DefaultClient].
func NewGeminiService(cfg shared.GeminiConfig, client *http.Client, logger *log.Logger) (*GeminiService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &GeminiService{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
		logger:     discardLogger(logger),
	}
	if s.model == "" {
		s.model = geminiModel
	}
	if s.baseURL == "" {
		s.baseURL = geminiBaseURL
	}
	return s, nil
}

// Name returns the name of the service
func (g *GeminiService) Name() string { return "Gemini" }

func userPrompt(text string) []geminiContent {
	return []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}}
}

// post sends body to the model method (e.g. ":generateContent") and returns the open response.
func (g *GeminiService) post(ctx context.Context, method string, body geminiRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s%s", g.baseURL, g.model, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxEventSize))

	var envelope geminiResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}
	return &GeminiError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw))}
}

// GeneratePlaylist requests a structured playlist and validates it.
//
// Every failure is logged and reported as [shared.ErrGenerationFailed]; a partial playlist is never returned.
func (g *GeminiService) GeneratePlaylist(ctx context.Context, first, second models.UserPreferences, vibe string, size models.Size) (*models.Playlist, error) {
	req := geminiRequest{
		Contents: userPrompt(prompts.BuildPlaylistPrompt(first, second, vibe, size)),
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   prompts.PlaylistSchema(),
		},
	}

	playlist, err := g.generatePlaylist(ctx, req)
	if err != nil {
		g.logger.Error("playlist generation failed", "model", g.model, "size", size, "error", err)
		return nil, fmt.Errorf("%w: %s", shared.ErrGenerationFailed, shared.GenerationFailedMessage)
	}

	g.logger.Debug("playlist generated", "name", playlist.Name, "songs", len(playlist.Songs))
	return playlist, nil
}

func (g *GeminiService) generatePlaylist(ctx context.Context, req geminiRequest) (*models.Playlist, error) {
	resp, err := g.post(ctx, ":generateContent", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}

	return DecodePlaylist(out.text())
}

// DecodePlaylist parses the model's JSON text into a playlist.
//
// It fails with [shared.ErrMalformedResponse] when playlistName is missing, null or blank,
// when songs is not an array, or when a song carries an unknown source.
func DecodePlaylist(text string) (*models.Playlist, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", shared.ErrMalformedResponse)
	}

	var raw struct {
		PlaylistName *string         `json:"playlistName"`
		Songs        json.RawMessage `json:"songs"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	if raw.PlaylistName == nil || strings.TrimSpace(*raw.PlaylistName) == "" {
		return nil, fmt.Errorf("%w: missing playlistName", shared.ErrMalformedResponse)
	}

	songsJSON := bytes.TrimSpace(raw.Songs)
	if len(songsJSON) == 0 || songsJSON[0] != '[' {
		return nil, fmt.Errorf("%w: songs is not an array", shared.ErrMalformedResponse)
	}

	songs := []models.Song{}
	if err := json.Unmarshal(songsJSON, &songs); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	return &models.Playlist{Name: strings.TrimSpace(*raw.PlaylistName), Songs: songs}, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// FindSongsByArtist streams the artist's song titles, emitting each distinct line as soon as it is complete.
//
// Cancelling ctx stops delivery and returns ctx.Err(). Stream failures are logged and reported
// as [shared.ErrStreamLookupFailed].
func (g *GeminiService) FindSongsByArtist(ctx context.Context, artist string, policy prompts.SearchPolicy, onSong func(string)) error {
	if strings.TrimSpace(artist) == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrMissingArgument)
	}

	req := geminiRequest{Contents: userPrompt(prompts.BuildArtistPrompt(artist, policy))}
	if policy == prompts.PolicyFast {
		req.GenerationConfig = &generationConfig{ThinkingConfig: &thinkingConfig{ThinkingBudget: 0}}
	}

	emit := func(title string) {
		if ctx.Err() == nil {
			onSong(title)
		}
	}

	err := g.streamLines(ctx, req, emit)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		g.logger.Error("artist lookup failed", "artist", artist, "policy", policy, "error", err)
		return fmt.Errorf("%w: could not load songs for %s", shared.ErrStreamLookupFailed, artist)
	}
	return nil
}

func (g *GeminiService) streamLines(ctx context.Context, req geminiRequest, emit func(string)) error {
	resp, err := g.post(ctx, ":streamGenerateContent?alt=sse", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	splitter := NewLineSplitter()
	err = readEvents(resp.Body, func(data []byte) error {
		var chunk geminiResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
		if chunk.Error != nil {
			return chunk.Error
		}
		splitter.Feed(chunk.text(), emit)
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	splitter.Flush(emit)
	return nil
}

// readEvents calls fn with the payload of every "data:" line of a server-sent event stream.
func readEvents(r io.Reader, fn func([]byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		payload, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		payload = bytes.TrimSpace(payload)
		if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
			continue
		}
		if err := fn(payload); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	return nil
}
