// package formatter exports optimized playlists from a snapshot to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Yocrita/Yocrify/internal/library"
	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/shared"
)

// ExportToCSV converts an optimized playlist to CSV with one row per track,
// including the cross-playlist occurrence list.
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "Year", "Also Appears In"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		year := ""
		if y, ok := library.ReleaseYear(track.ReleaseDate); ok {
			year = strconv.Itoa(y)
		}

		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.Artists, "; "),
			track.Album,
			library.FormatDuration(track.DurationMS),
			year,
			joinRefs(track.OtherPlaylists),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an optimized playlist to a Markdown summary with
// aggregates and the full track list.
func ExportToMarkdown(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Name))

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", playlist.TracksTotal))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n", playlist.DurationFormatted))
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n", playlist.ArtistsTotal))
	if len(playlist.YearsRange) == 2 {
		buf.WriteString(fmt.Sprintf("**Years**: %d–%d\n", playlist.YearsRange[0], playlist.YearsRange[1]))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range playlist.Tracks {
		duration := library.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, strings.Join(track.Artists, ", "), track.Name, albumPart, duration))
		if len(track.OtherPlaylists) > 0 {
			buf.WriteString(fmt.Sprintf("   - also in: %s\n", joinRefs(track.OtherPlaylists)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an optimized playlist to plain text.
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d (%s)\n\n", playlist.TracksTotal, playlist.DurationFormatted))

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name))
	}

	return buf.Bytes(), nil
}

// WriteExport writes one playlist in the requested format. The path defaults
// to the playlist id plus the format's extension inside outputDir.
func WriteExport(playlist *models.Playlist, format, outputDir string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(playlist)
		ext = "csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(playlist)
		ext = "md"
	case "txt":
		data, err = ExportToText(playlist)
		ext = "txt"
	case "json", "":
		data, err = shared.MarshalJSON(playlist, true)
		ext = "json"
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s.%s", playlist.ID, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func joinRefs(refs []models.PlaylistRef) string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	return strings.Join(names, ", ")
}
