package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/Yocrita/Yocrify/internal/repositories"
	"github.com/Yocrita/Yocrify/internal/server"
	"github.com/Yocrita/Yocrify/internal/services"
	"github.com/Yocrita/Yocrify/internal/tasks"
)

// Serve runs the HTTP server: OAuth flow, snapshot reads, and the SSE sync
// stream, all backed by the same sqlite stores the CLI uses.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if flagHost := cmd.String("host"); flagHost != "" {
		host = flagHost
	}
	port := r.config.Server.Port
	if flagPort := cmd.Int("port"); flagPort > 0 {
		port = flagPort
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	tokenRepo := repositories.NewTokenRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)
	oauthConfig := services.OAuthConfig(r.config.Credentials.Spotify)

	service := services.NewSpotifyService(services.SpotifyOpts{
		Tokens: repositories.Active(tokenRepo, oauthConfig),
		Sync:   r.config.Sync,
		Logger: r.logger,
	})

	engine := tasks.NewEngine(service, snapshotRepo, r.logger, tasks.SyncOpts{
		Workers:         r.config.Sync.Workers,
		RateLimit:       r.config.Sync.RateLimit,
		CheckpointEvery: r.config.Sync.CheckpointEvery,
		MaxPlaylists:    r.config.Sync.MaxPlaylists,
	})

	router := server.NewRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewOAuthHandler(oauthConfig, tokenRepo, r.profileResolver(), r.logger))
	router.Handler(server.NewLibraryHandler(snapshotRepo, r.logger))
	router.Handler(server.NewSyncHandler(engine, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	r.logger.Info("server listening", "addr", addr)
	return http.ListenAndServe(addr, router)
}
