package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Generation errors
	ErrGenerationFailed   = fmt.Errorf("playlist generation failed")
	ErrMalformedResponse  = fmt.Errorf("malformed completion response")
	ErrStreamLookupFailed = fmt.Errorf("artist lookup failed")
	ErrInsufficientInput  = fmt.Errorf("insufficient input")
	ErrInvalidStage       = fmt.Errorf("operation not allowed in current stage")
	ErrGenerationInFlight = fmt.Errorf("generation already in progress")
	ErrStale              = fmt.Errorf("result discarded after reset")

	// Authentication errors
	ErrMissingVerifier     = fmt.Errorf("missing code verifier")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNavigation          = fmt.Errorf("could not open browser")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Export errors
	ErrNoTracksResolved   = fmt.Errorf("no tracks found on Spotify")
	ErrExportFailed       = fmt.Errorf("spotify export failed")
	ErrExportInFlight     = fmt.Errorf("export already in progress")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// GenerationFailedMessage is shown when the completion service cannot produce a playlist.
const GenerationFailedMessage = "Could not connect to the playlist generation service. Please try again later."

// UserMessage renders err as the short message shown to an end user.
//
// Errors outside the fixed cases are returned as-is; wrapped taxonomy errors
// already carry their upstream message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrGenerationFailed):
		return GenerationFailedMessage
	case errors.Is(err, ErrNoTracksResolved):
		return "Could not find any of the playlist songs on Spotify."
	case errors.Is(err, ErrNotAuthenticated):
		return "Connect your Spotify account first."
	case errors.Is(err, ErrExportInFlight):
		return "Wait for the Spotify export to finish."
	case errors.Is(err, ErrInsufficientInput):
		return "Both listeners need some preferences and the vibe must be set."
	}

	return err.Error()
}
