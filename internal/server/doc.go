// Package server provides the thin HTTP shims around the sync core: routing
// with middleware, the OAuth login/callback pair, snapshot read endpoints,
// and the Server-Sent Events stream for long-running syncs.
//
// # Router Infrastructure
//
// [Router] wraps [http.ServeMux] with a middleware stack applied in reverse
// order (last added executes first), following the standard Go pattern.
// Custom handlers implement [Handler] to register multiple routes at once.
//
// # Sync Streaming
//
// [SyncHandler] bridges the engine's ordered progress channel to an SSE
// response: one frame per event, flushed as it arrives, with the explicit
// terminal complete (or error) event. The request context carries
// cancellation into the engine, so a disconnected client stops the run's
// remote fetches promptly.
//
// # Authentication
//
// [OAuthHandler] performs the authorization code flow and persists the
// exchanged token per user through a [TokenSink]. The sync core never sees
// OAuth details; it consumes tokens through the services.TokenProvider
// interface.
package server
