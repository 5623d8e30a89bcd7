// Package services implements the remote listing provider for the sync
// engine.
//
// [SpotifyService] wraps the Spotify Web API with typed response structs and
// three resilience layers:
//
//   - transport retries with backoff ([retryablehttp.Client]) for network and
//     5xx-class failures on a single request
//   - a circuit breaker ([gobreaker.CircuitBreaker]) that sheds load after
//     consecutive failures
//   - page-level retry via the shared retry policy, which also covers
//     structurally invalid payloads (a page missing its items field is a
//     malformed response to retry, never empty data)
//
// Pagination methods ([SpotifyService.AllPlaylists],
// [SpotifyService.AllPlaylistTracks]) follow continuation cursors until the
// provider signals no further page. When a later page fails after earlier
// pages succeeded, the failure carries a [PartialError] so callers can
// distinguish partial from total failure.
//
// Tokens are supplied per request by a [TokenProvider]; an absent token is an
// authentication failure and is never retried.
package services
