package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Yocrita/Yocrify/internal/formatter"
	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/repositories"
	"github.com/Yocrita/Yocrify/internal/ui"
)

// loadSnapshot reads the stored snapshot for the resolved user.
func (r *Runner) loadSnapshot(userFlag string) (string, *models.Snapshot, error) {
	userID, err := r.resolveUser(userFlag)
	if err != nil {
		return "", nil, err
	}

	db, err := r.database()
	if err != nil {
		return "", nil, err
	}

	snapshot, err := repositories.NewSnapshotRepository(db).Load(userID)
	if err != nil {
		return "", nil, err
	}
	return userID, snapshot, nil
}

// Playlists lists the synced playlist library.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	_, snapshot, err := r.loadSnapshot(cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshot, cmd.Bool("pretty"))
	}

	for _, playlist := range snapshot.Playlists {
		marker := ""
		if folder, _ := models.SplitFolder(playlist.Name); folder != "" {
			marker = fmt.Sprintf(" [%s]", folder)
		}
		r.writePlain("%s%s  %d tracks  %s\n", playlist.Name, marker, playlist.TracksTotal, playlist.DurationFormatted)
	}
	return r.writePlain("\n%d playlists\n", len(snapshot.Playlists))
}

// PlaylistShow prints one playlist with its duplicate annotations.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	_, snapshot, err := r.loadSnapshot(cmd.String("user"))
	if err != nil {
		return err
	}

	playlist := snapshot.PlaylistByID(cmd.String("id"))
	if playlist == nil {
		return fmt.Errorf("playlist %q not found in snapshot", cmd.String("id"))
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", playlist.Name)
	r.writePlain("%d tracks • %s • %d artists\n", playlist.TracksTotal, playlist.DurationFormatted, playlist.ArtistsTotal)
	if years := playlist.YearsRange; len(years) == 2 {
		r.writePlain("Years: %d-%d\n", years[0], years[1])
	}
	r.writePlain("\n")

	for _, track := range playlist.Tracks {
		r.writePlain("  %s - %s\n", strings.Join(track.Artists, ", "), track.Name)
		if len(track.OtherPlaylists) > 0 {
			names := make([]string, 0, len(track.OtherPlaylists))
			for _, ref := range track.OtherPlaylists {
				names = append(names, ref.Name)
			}
			r.writePlain("    also in: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

// Export writes a synced playlist to a file in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	_, snapshot, err := r.loadSnapshot(cmd.String("user"))
	if err != nil {
		return err
	}

	playlist := snapshot.PlaylistByID(cmd.String("id"))
	if playlist == nil {
		return fmt.Errorf("playlist %q not found in snapshot", cmd.String("id"))
	}

	path, err := formatter.WriteExport(playlist, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("playlist exported", "playlist", playlist.Name, "path", path)
	return r.writePlain("✓ Exported to %s\n", path)
}

// Browse launches the interactive snapshot browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	snapshots := repositories.NewSnapshotRepository(db)
	model := ui.NewLibraryModel(func() (*models.Snapshot, error) {
		return snapshots.Load(userID)
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
