// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the local database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the currently authenticated user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User ID to inspect (default: last authenticated)",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand runs a full library sync.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the playlist library and resolve duplicates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User ID to sync (default: last authenticated)",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Cap the number of playlists synced (0 = all)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Render progress in an interactive terminal UI",
			},
		},
		Action: r.SyncRun,
	}
}

// playlistsCommand reads the synced snapshot.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List synced playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User ID (default: last authenticated)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show one playlist with duplicate annotations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User ID (default: last authenticated)",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to show",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.PlaylistShow,
			},
		},
	}
}

// exportCommand writes a synced playlist to a local file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a synced playlist to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User ID (default: last authenticated)",
			},
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown, txt, or json",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   ".",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the HTTP server with the OAuth, library, and sync routes.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// browseCommand launches the interactive snapshot browser.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse the synced library interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User ID (default: last authenticated)",
			},
		},
		Action: r.Browse,
	}
}
