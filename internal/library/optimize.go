package library

import (
	"sort"
	"strings"
	"time"

	"github.com/Yocrita/Yocrify/internal/models"
)

// PlaylistMeta carries the playlist-level metadata needed to build an
// optimized record, decoupled from the raw listing shape.
type PlaylistMeta struct {
	ID          string
	Name        string
	Description string
	Images      []models.Image
	Owner       models.Owner
}

// Optimize builds one playlist's persisted record from its normalized tracks
// and the duplicate index as currently populated.
//
// Mid-run the index only covers playlists processed so far, which is fine
// for checkpoint snapshots; [ApplyIndex] rewrites every occurrence list once
// the full pass completes. Aggregates (duration, artist set, year range) do
// not depend on the index and are final immediately.
func Optimize(meta PlaylistMeta, tracks []models.Track, index *DuplicateIndex) models.Playlist {
	folder, _ := models.SplitFolder(meta.Name)

	totalDuration := 0
	artistSet := make(map[string]struct{})
	yearSet := make(map[int]struct{})

	optimized := make([]models.Track, len(tracks))
	copy(optimized, tracks)

	for i := range optimized {
		track := &optimized[i]
		totalDuration += track.DurationMS

		for _, artist := range track.Artists {
			artistSet[artist] = struct{}{}
		}
		if year, ok := ReleaseYear(track.ReleaseDate); ok {
			yearSet[year] = struct{}{}
		}

		if index != nil {
			track.OtherPlaylists = index.OccurrencesExcluding(track.ID, meta.ID)
		}
	}

	sort.SliceStable(optimized, func(i, j int) bool {
		return strings.ToLower(optimized[i].Name) < strings.ToLower(optimized[j].Name)
	})

	artists := make([]string, 0, len(artistSet))
	for artist := range artistSet {
		artists = append(artists, artist)
	}
	sort.Strings(artists)

	return models.Playlist{
		ID:                meta.ID,
		Name:              meta.Name,
		Folder:            folder,
		Description:       meta.Description,
		Images:            meta.Images,
		Owner:             meta.Owner,
		Tracks:            optimized,
		TracksTotal:       len(optimized),
		DurationMS:        totalDuration,
		DurationFormatted: FormatDuration(totalDuration),
		ArtistsTotal:      len(artists),
		Artists:           artists,
		YearsRange:        yearRange(yearSet),
		ModifiedAt:        time.Now().Unix(),
	}
}

// yearRange reduces a year set to [min, max]. An empty set yields an empty
// range, not an error.
func yearRange(years map[int]struct{}) []int {
	if len(years) == 0 {
		return []int{}
	}

	first := true
	lo, hi := 0, 0
	for year := range years {
		if first {
			lo, hi = year, year
			first = false
			continue
		}
		if year < lo {
			lo = year
		}
		if year > hi {
			hi = year
		}
	}
	return []int{lo, hi}
}
