// package models defines the data model for the playlist library sync service
package models

import (
	"sort"
	"strings"
)

// FolderDelimiter separates an optional folder prefix from the playlist name
// (e.g. "Workouts / Running 2024").
const FolderDelimiter = " / "

// PlaylistRef is a lightweight reference to a playlist, used for
// cross-playlist track occurrence lists.
type PlaylistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Image represents a remote image resource attached to a playlist.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Owner represents the owning user of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Track is the canonical normalized track record.
//
// OtherPlaylists lists every other playlist the same track id appears in.
// It is only authoritative after the full index-application pass at the end
// of a sync; checkpoint snapshots written mid-run carry a best-effort view.
type Track struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	DurationMS     int           `json:"duration_ms"`
	Artists        []string      `json:"artists"`
	Album          string        `json:"album"`
	ReleaseDate    string        `json:"release_date"`
	OtherPlaylists []PlaylistRef `json:"other_playlists"`
}

// Playlist is the optimized, persisted form of one synchronized playlist.
type Playlist struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Folder            string   `json:"folder,omitempty"`
	Description       string   `json:"description"`
	Images            []Image  `json:"images"`
	Owner             Owner    `json:"owner"`
	Tracks            []Track  `json:"tracks"`
	TracksTotal       int      `json:"tracks_total"`
	DurationMS        int      `json:"duration_ms"`
	DurationFormatted string   `json:"duration_formatted"`
	ArtistsTotal      int      `json:"artists_total"`
	Artists           []string `json:"artists"`
	YearsRange        []int    `json:"years_range"`
	ModifiedAt        int64    `json:"modified_at"`
}

// Snapshot is the complete persisted state of one user's library.
// A new snapshot fully replaces the previous one for that user.
type Snapshot struct {
	Playlists []Playlist `json:"playlists"`
	LastSync  int64      `json:"last_sync"`
}

// PlaylistByID returns the playlist with the given id, or nil.
func (s *Snapshot) PlaylistByID(id string) *Playlist {
	for i := range s.Playlists {
		if s.Playlists[i].ID == id {
			return &s.Playlists[i]
		}
	}
	return nil
}

// SplitFolder parses an optional "folder / name" prefix from a playlist name.
// Returns empty folder and the input unchanged when no delimiter is present.
func SplitFolder(name string) (folder, base string) {
	parts := strings.SplitN(name, FolderDelimiter, 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", name
}

// SortRefs orders playlist references case-insensitively by name, ties broken
// by id so output is deterministic.
func SortRefs(refs []PlaylistRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := strings.ToLower(refs[i].Name), strings.ToLower(refs[j].Name)
		if a == b {
			return refs[i].ID < refs[j].ID
		}
		return a < b
	})
}
