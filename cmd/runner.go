package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/Yocrita/Yocrify/internal/repositories"
	"github.com/Yocrita/Yocrify/internal/services"
	"github.com/Yocrita/Yocrify/internal/shared"
	"github.com/Yocrita/Yocrify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	db      *sql.DB
	service services.LibraryService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	DB      *sql.DB
	Service services.LibraryService
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		db:      opts.DB,
		service: opts.Service,
	}
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, playlistsCommand, exportCommand, serveCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database lazily opens the configured sqlite database.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	r.db = db
	return db, nil
}

// libraryService builds the remote service for a user's stored credentials.
func (r *Runner) libraryService(userID string) (services.LibraryService, error) {
	if r.service != nil {
		return r.service, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	tokens := repositories.ProviderFor(
		repositories.NewTokenRepository(db),
		services.OAuthConfig(r.config.Credentials.Spotify),
		userID,
	)

	return services.NewSpotifyService(services.SpotifyOpts{
		Tokens: tokens,
		Sync:   r.config.Sync,
		Logger: r.logger,
	}), nil
}

// engine builds a sync engine over the user's service and the snapshot store.
func (r *Runner) engine(userID string) (*tasks.Engine, error) {
	service, err := r.libraryService(userID)
	if err != nil {
		return nil, err
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	opts := tasks.SyncOpts{
		Workers:         r.config.Sync.Workers,
		RateLimit:       r.config.Sync.RateLimit,
		CheckpointEvery: r.config.Sync.CheckpointEvery,
		MaxPlaylists:    r.config.Sync.MaxPlaylists,
	}

	return tasks.NewEngine(service, repositories.NewSnapshotRepository(db), r.logger, opts), nil
}

// resolveUser maps an explicit --user flag to a user id, falling back to
// whoever authenticated last.
func (r *Runner) resolveUser(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	db, err := r.database()
	if err != nil {
		return "", err
	}

	userID, err := repositories.NewTokenRepository(db).LastUser()
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", shared.ErrNotAuthenticated
	}
	return userID, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
