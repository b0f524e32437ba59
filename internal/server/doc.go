// Package server runs the short-lived local HTTP server that receives the Spotify OAuth redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [Middleware] wraps handlers
// in reverse order (last added executes first). [BasicRouter] registers method-qualified patterns
// on an [http.ServeMux].
//
// # Callback Handler
//
// [CallbackHandler] accepts exactly one redirect. It checks the state parameter against the one sent
// to the authorize page, hands the query to the authenticator to exchange the code, renders a small
// page for the browser, and publishes the outcome on [CallbackHandler.Result].
//
// The CLI starts the server on the redirect URI's host, opens the browser and waits for the result
// (or a timeout) before shutting the server down.
package server
