package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yocrita/Yocrify/internal/models"
	tu "github.com/Yocrita/Yocrify/internal/testing"
)

func exportFixture() *models.Playlist {
	return &models.Playlist{
		ID:                "pl1",
		Name:              "Test Playlist",
		Description:       "A test playlist",
		TracksTotal:       2,
		DurationMS:        395000,
		DurationFormatted: "6m 35s",
		ArtistsTotal:      2,
		Artists:           []string{"Artist One", "Artist Two"},
		YearsRange:        []int{1999, 2010},
		Tracks: []models.Track{
			{
				ID:          "track1",
				Name:        "Song One",
				Artists:     []string{"Artist One"},
				Album:       "Album One",
				DurationMS:  180000,
				ReleaseDate: "1999-06-01",
				OtherPlaylists: []models.PlaylistRef{
					{ID: "pl2", Name: "Road Trip"},
				},
			},
			{
				ID:          "track2",
				Name:        "Song Two",
				Artists:     []string{"Artist Two"},
				Album:       "Album Two",
				DurationMS:  215000,
				ReleaseDate: "2010",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(exportFixture())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Name,Artists,Album,Duration,Year,Also Appears In") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1") {
			t.Errorf("CSV missing track1 ID")
		}
		if !strings.Contains(output, "3m 0s") {
			t.Errorf("CSV missing formatted duration")
		}
		if !strings.Contains(output, "1999") {
			t.Errorf("CSV missing release year")
		}
		if !strings.Contains(output, "Road Trip") {
			t.Errorf("CSV missing cross-playlist occurrence")
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Errorf("expected header plus 2 rows, got %d lines", len(lines))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(exportFixture())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "**Duration**: 6m 35s") {
			t.Errorf("Markdown missing duration")
		}
		if !strings.Contains(output, "also in: Road Trip") {
			t.Errorf("Markdown missing occurrence annotation")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(exportFixture())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("text missing playlist name")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("text missing numbered track line, got: %s", output)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("writes each format with its extension", func(t *testing.T) {
		tmpDir := t.TempDir()

		cases := map[string]string{
			"csv":      "pl1.csv",
			"markdown": "pl1.md",
			"txt":      "pl1.txt",
			"json":     "pl1.json",
		}

		for format, filename := range cases {
			path, err := WriteExport(exportFixture(), format, tmpDir)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", format, err)
			}
			if filepath.Base(path) != filename {
				t.Errorf("expected file %s, got %s", filename, path)
			}
			tu.AssertFileExists(t, path)
		}
	})

	t.Run("empty format defaults to JSON", func(t *testing.T) {
		tmpDir := t.TempDir()

		path, err := WriteExport(exportFixture(), "", tmpDir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, `"other_playlists"`) {
			t.Errorf("JSON export should include occurrence lists, got: %s", content)
		}
	})

	t.Run("unknown format rejected", func(t *testing.T) {
		if _, err := WriteExport(exportFixture(), "xml", t.TempDir()); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("creates output directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "exports", "deep")

		path, err := WriteExport(exportFixture(), "txt", nested)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("export file should exist: %v", err)
		}
	})
}
