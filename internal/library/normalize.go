package library

import (
	"strconv"
	"strings"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/services"
)

// NormalizeTrack converts one raw playlist track item into the canonical
// [models.Track]. The second return value is false when the item must be
// skipped: removed or unavailable items come back with a null inner track
// (or an empty id) and contribute nothing to the library.
//
// Field extraction is defensive; missing artists yield an empty list, a
// missing album yields empty name and release date, a missing duration
// yields zero. Pure, no I/O.
func NormalizeTrack(item services.PlaylistTrackItem) (models.Track, bool) {
	raw := item.Track
	if raw == nil || raw.ID == "" {
		return models.Track{}, false
	}

	artists := make([]string, 0, len(raw.Artists))
	for _, artist := range raw.Artists {
		if artist.Name != "" {
			artists = append(artists, artist.Name)
		}
	}

	duration := raw.DurationMS
	if duration < 0 {
		duration = 0
	}

	return models.Track{
		ID:             raw.ID,
		Name:           raw.Name,
		DurationMS:     duration,
		Artists:        artists,
		Album:          raw.Album.Name,
		ReleaseDate:    raw.Album.ReleaseDate,
		OtherPlaylists: []models.PlaylistRef{},
	}, true
}

// NormalizeAll normalizes a full track listing, dropping skipped items.
func NormalizeAll(items []services.PlaylistTrackItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if track, ok := NormalizeTrack(item); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// ReleaseYear parses the year from a partial release date such as "2001" or
// "2001-05-01": the leading dash-delimited segment. Unparsable or absent
// dates contribute no year.
func ReleaseYear(date string) (int, bool) {
	head, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(head)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
