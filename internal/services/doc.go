// Package services implements the network clients behind playlist generation and export.
//
// # Completion Client
//
// [GeminiService] implements [Completer] against the Gemini REST API. Playlists are requested with a
// JSON response schema and validated before they are returned; artist lookups use the server-sent
// event stream and are decoded line by line with a [LineSplitter].
//
// # Spotify
//
// [SpotifyService] implements [MusicService] on top of github.com/zmb3/spotify/v2, authenticated
// with a stored PKCE access token. Requests are not retried and the token is never refreshed.
//
// # Error Handling
//
// The completion client reports failures with taxonomy errors from the shared package:
//   - [shared.ErrGenerationFailed] : playlist request, decode or validation failed
//   - [shared.ErrStreamLookupFailed] : artist lookup stream failed
//
// Their underlying causes are logged, never returned. [DecodePlaylist] on its own
// returns [shared.ErrMalformedResponse] so saved playlist files can be checked.
// Spotify errors are returned wrapped and classified by the export engine.
package services
