// Package tasks orchestrates playlist generation and export with real-time progress reporting.
//
// # Core Operations
//
//  1. [Session] : the two-listener flow
//     - Collects each listener's songs, artists and genres, plus a shared vibe
//     - Generates a taster (3-5 songs) and then a full playlist (20-25 songs)
//     - Streams an artist's songs to help a listener fill in favourites
//     - Saves each generated playlist to history when a [HistoryRecorder] is set
//
//  2. [ExportEngine] : publishes a playlist to Spotify
//     - Resolves the account of the stored access token
//     - Searches each song concurrently (errgroup with a limit, optional rate limiter)
//     - Creates a public playlist and adds up to [MaxTracksPerRequest] matches in one call
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with
// default so a slow or absent reader never blocks the operation.
//
// # Staleness
//
// [Session.Reset] bumps an epoch. Generation, lookup and export results that
// arrive for an older epoch are dropped and reported as [shared.ErrStale].
package tasks
