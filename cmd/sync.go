package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Yocrita/Yocrify/internal/tasks"
	"github.com/Yocrita/Yocrify/internal/ui"
)

// SyncRun performs a full library sync, streaming progress to the terminal.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	if max := cmd.Int("max"); max > 0 {
		r.config.Sync.MaxPlaylists = max
	}

	engine, err := r.engine(userID)
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		model := ui.NewSyncModel(ctx, engine, userID)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	}

	r.logger.Info("starting sync", "user", userID)

	type outcome struct {
		result *tasks.SyncResult
		err    error
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan outcome, 1)

	go func() {
		result, err := engine.Sync(ctx, userID, progress)
		close(progress)
		done <- outcome{result: result, err: err}
	}()

	for update := range progress {
		switch update.Kind {
		case tasks.EventError:
			r.writePlain("✗ [%d/%d] %s (skipped: %s)\n", update.Index, update.Total, update.PlaylistName, update.Message)
		case tasks.EventComplete:
			// summary follows below
		default:
			if update.PlaylistName != "" {
				r.writePlain("✓ [%d/%d] %s\n", update.Index, update.Total, update.PlaylistName)
			} else if update.Message != "" {
				r.writePlain("%s\n", update.Message)
			}
		}
	}

	run := <-done
	if run.err != nil {
		return fmt.Errorf("sync failed: %w", run.err)
	}

	r.writePlain("\n✓ Sync complete: %d playlists\n", run.result.Processed)
	if len(run.result.Skipped) > 0 {
		r.writePlain("Skipped %d playlists:\n", len(run.result.Skipped))
		for _, ref := range run.result.Skipped {
			r.writePlain("  • %s\n", ref.Name)
		}
	}

	return nil
}
