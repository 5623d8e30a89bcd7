// package services wraps the remote listing API consumed by the sync engine
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/Yocrita/Yocrify/internal/shared"
)

// TokenProvider supplies a valid access token for the current user,
// refreshing if necessary. A nil token means the user holds no valid
// credential and the caller must treat the run as unauthenticated.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// StaticToken is a TokenProvider returning a fixed token. Used by the CLI
// after an interactive OAuth flow and by tests.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (*oauth2.Token, error) {
	if s == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: string(s)}, nil
}

// LibraryService is the remote listing provider the sync engine consumes:
// full-pagination listing of the user's playlists and of one playlist's
// tracks. Implementations handle continuation cursors, per-page retry, and
// surface partial failures via [PartialError].
type LibraryService interface {
	// CurrentUser returns the authenticated user's profile.
	CurrentUser(ctx context.Context) (*UserProfile, error)

	// AllPlaylists follows the playlist listing pagination to the end.
	AllPlaylists(ctx context.Context) ([]SimplePlaylist, error)

	// AllPlaylistTracks follows one playlist's track pagination to the end.
	AllPlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrackItem, error)

	// Name returns the provider name (e.g. "Spotify").
	Name() string
}

// PartialError reports a pagination run that fetched some pages before a
// later page failed permanently. The fetched items are returned alongside
// the error; callers decide whether the partial items are worth keeping.
type PartialError struct {
	Items int // items fetched before the failure
	Err   error
}

func (e *PartialError) Error() string {
	return e.Err.Error()
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// OAuthConfig builds the authorization code flow config for the Spotify API
// from stored credentials. The scopes cover read-only library access.
func OAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"playlist-read-private", "playlist-read-collaborative", "user-library-read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.spotify.com/authorize",
			TokenURL: "https://accounts.spotify.com/api/token",
		},
	}
}
