package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/Yocrita/Yocrify/internal/repositories"
	"github.com/Yocrita/Yocrify/internal/server"
	"github.com/Yocrita/Yocrify/internal/services"
	"github.com/Yocrita/Yocrify/internal/shared"
)

// loginTimeout bounds how long the CLI waits for the browser flow.
const loginTimeout = 5 * time.Minute

// notifyingSink persists tokens and reports the authenticated user back to
// the waiting login command.
type notifyingSink struct {
	repo *repositories.TokenRepository
	done chan string
}

func (s *notifyingSink) Save(userID string, token *oauth2.Token) error {
	if err := s.repo.Save(userID, token); err != nil {
		return err
	}
	select {
	case s.done <- userID:
	default:
	}
	return nil
}

// AuthLogin runs the browser OAuth flow against a temporary local server
// bound to the configured redirect URI.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: set credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, creds.RedirectURI)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	oauthConfig := services.OAuthConfig(creds)
	sink := &notifyingSink{
		repo: repositories.NewTokenRepository(db),
		done: make(chan string, 1),
	}

	handler := server.NewOAuthHandler(oauthConfig, sink, r.profileResolver(), r.logger)

	mux := http.NewServeMux()
	for _, route := range handler.Routes() {
		mux.Handle(route, handler)
	}
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "Authentication complete. You can close this tab and return to the terminal.")
	})

	srv := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server failed", "error", err)
		}
	}()

	loginURL := fmt.Sprintf("http://%s/login", redirect.Host)
	r.logger.Info("opening browser for authorization", "url", loginURL)
	if err := shared.OpenBrowser(loginURL); err != nil {
		r.writePlain("Open this URL in your browser to continue:\n%s\n", loginURL)
	}

	var userID string
	select {
	case userID = <-sink.done:
	case <-ctx.Done():
		srv.Shutdown(context.Background())
		return ctx.Err()
	case <-time.After(loginTimeout):
		srv.Shutdown(context.Background())
		return fmt.Errorf("%w: login timed out", shared.ErrNotAuthenticated)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	return r.writePlain("✓ Authenticated as %s\n", userID)
}

// AuthStatus reports the stored credential for the active user.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	token, err := repositories.NewTokenRepository(db).Get(userID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: no credential stored for %s", shared.ErrNotAuthenticated, userID)
	}

	state := "expired (will refresh on next use)"
	if token.Valid() {
		state = fmt.Sprintf("valid until %s", token.Expiry.Format(time.RFC3339))
	}

	r.writePlain("User: %s\n", userID)
	return r.writePlain("Token: %s\n", state)
}

// profileResolver builds the callback that maps a fresh token to a user id
// by asking the remote API who the token belongs to.
func (r *Runner) profileResolver() server.ProfileFunc {
	return func(req *http.Request, token *oauth2.Token) (string, error) {
		service := services.NewSpotifyService(services.SpotifyOpts{
			Tokens: services.StaticToken(token.AccessToken),
			Sync:   r.config.Sync,
			Logger: r.logger,
		})

		profile, err := service.CurrentUser(req.Context())
		if err != nil {
			return "", err
		}
		return profile.ID, nil
	}
}
