// Spotify API implementation of [LibraryService]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	defaultPageSize = 50
)

// UserProfile represents the authenticated Spotify user.
type UserProfile struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Images      []models.Image `json:"images"`
}

// SpotifyTrack represents a Spotify track object.
type SpotifyTrack struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artists    []TrackArtist `json:"artists"`
	Album      TrackAlbum    `json:"album"`
	DurationMS int           `json:"duration_ms"`
}

// TrackArtist represents an artist entry on a track.
type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackAlbum represents the album entry on a track.
type TrackAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// PlaylistTrackItem represents one entry of a playlist's track listing. The
// inner Track is nullable: removed or region-blocked items come back null and
// must be skipped during normalization.
type PlaylistTrackItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SimplePlaylist represents a playlist object as returned by the listing
// endpoint.
type SimplePlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       models.Owner   `json:"owner"`
	Images      []models.Image `json:"images"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// playlistPage is the paginated envelope of the playlist listing. Items is a
// pointer so a structurally invalid payload (missing "items") is
// distinguishable from an empty page.
type playlistPage struct {
	Items  *[]SimplePlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// trackPage is the paginated envelope of a playlist's track listing.
type trackPage struct {
	Items  *[]PlaylistTrackItem `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
	Next   *string              `json:"next"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL string         // defaults to the public API
	Tokens  TokenProvider  // required
	Sync    shared.SyncConfig
	Logger  *log.Logger
}

// SpotifyService implements [LibraryService] against the Spotify Web API.
//
// Transport-level failures are retried by the underlying [retryablehttp.Client];
// a circuit breaker sheds load when the API fails consecutively. Page-level
// retry (including malformed payloads) is applied by the pagination methods.
type SpotifyService struct {
	baseURL string
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	tokens  TokenProvider
	policy  shared.RetryPolicy
	timeout time.Duration
	logger  *log.Logger
}

// NewSpotifyService creates a Spotify service with retry and circuit breaker.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	settings := gobreaker.Settings{
		Name:        "spotify-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	policy := shared.RetryPolicy{
		MaxAttempts: opts.Sync.MaxRetries,
		BaseDelay:   opts.Sync.Backoff(),
		ShouldRetry: Retryable,
	}

	return &SpotifyService{
		baseURL: opts.BaseURL,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		tokens:  opts.Tokens,
		policy:  policy,
		timeout: opts.Sync.RequestTimeout(),
		logger:  opts.Logger,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Retryable reports whether a fetch error is worth another attempt.
// Auth failures are fatal; transient and malformed-payload failures are not.
func Retryable(err error) bool {
	return !IsAuthError(err)
}

// IsAuthError reports whether err indicates a missing or rejected credential.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired)
}

// doRequest performs one authenticated GET against the API and decodes the
// JSON body into result. Every call carries a bounded timeout.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.tokens == nil {
		return shared.ErrNotAuthenticated
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if token == nil || token.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.breaker.Execute(func() (any, error) {
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, shared.ErrTokenExpired
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", shared.ErrTransientFetch, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body.([]byte), result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlist retrieves a single playlist's metadata.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SimplePlaylist, error) {
	var playlist SimplePlaylist
	if err := s.doRequest(ctx, "/playlists/"+playlistID, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// playlistsPage requests one page of the user's playlist listing. A page
// without an items field is a malformed response, not empty data.
func (s *SpotifyService) playlistsPage(ctx context.Context, limit, offset int) (*playlistPage, error) {
	var page playlistPage
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return nil, fmt.Errorf("%w: playlist page missing items", shared.ErrMalformedResponse)
	}
	return &page, nil
}

// tracksPage requests one page of a playlist's track listing.
func (s *SpotifyService) tracksPage(ctx context.Context, playlistID string, limit, offset int) (*trackPage, error) {
	var page trackPage
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return nil, fmt.Errorf("%w: track page missing items", shared.ErrMalformedResponse)
	}
	return &page, nil
}

// AllPlaylists follows the playlist listing pagination until the provider
// signals no further page. Each page request is wrapped in the retry policy;
// a permanent failure after some pages succeeded is surfaced as a
// [PartialError] alongside the items fetched so far.
func (s *SpotifyService) AllPlaylists(ctx context.Context) ([]SimplePlaylist, error) {
	var all []SimplePlaylist
	offset := 0

	for {
		var page *playlistPage
		err := shared.Retry(ctx, s.policy, func() error {
			p, err := s.playlistsPage(ctx, defaultPageSize, offset)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			if len(all) > 0 {
				return all, &PartialError{Items: len(all), Err: err}
			}
			return nil, err
		}

		all = append(all, *page.Items...)
		if page.Next == nil || len(*page.Items) == 0 {
			return all, nil
		}
		offset += len(*page.Items)
	}
}

// AllPlaylistTracks follows one playlist's track pagination to the end,
// with the same per-page retry and partial-failure semantics as
// [SpotifyService.AllPlaylists].
func (s *SpotifyService) AllPlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrackItem, error) {
	var all []PlaylistTrackItem
	offset := 0

	for {
		var page *trackPage
		err := shared.Retry(ctx, s.policy, func() error {
			p, err := s.tracksPage(ctx, playlistID, 100, offset)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			if len(all) > 0 {
				return all, &PartialError{Items: len(all), Err: err}
			}
			return nil, err
		}

		all = append(all, *page.Items...)
		if page.Next == nil || len(*page.Items) == 0 {
			return all, nil
		}
		offset += len(*page.Items)
	}
}
