package library

import (
	"sync"

	"github.com/Yocrita/Yocrify/internal/models"
)

// DuplicateIndex maps a track id to the ordered set of playlists containing
// it. It is the single shared mutable structure of a sync run, so all
// mutation goes through [DuplicateIndex.Record] under a mutex; occurrence
// entries are append-only for the duration of a pass and idempotent per
// (track, playlist) pair.
type DuplicateIndex struct {
	mu   sync.Mutex
	byID map[string][]models.PlaylistRef
	seen map[string]map[string]struct{}
}

// NewDuplicateIndex creates an empty index.
func NewDuplicateIndex() *DuplicateIndex {
	return &DuplicateIndex{
		byID: make(map[string][]models.PlaylistRef),
		seen: make(map[string]map[string]struct{}),
	}
}

// Record appends a (track, playlist) occurrence. Recording the same pair
// twice is a no-op, so replayed pages never produce duplicate entries.
func (d *DuplicateIndex) Record(trackID, playlistID, playlistName string) {
	if trackID == "" || playlistID == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	playlists, ok := d.seen[trackID]
	if !ok {
		playlists = make(map[string]struct{})
		d.seen[trackID] = playlists
	}
	if _, dup := playlists[playlistID]; dup {
		return
	}
	playlists[playlistID] = struct{}{}

	d.byID[trackID] = append(d.byID[trackID], models.PlaylistRef{ID: playlistID, Name: playlistName})
}

// OccurrencesExcluding returns every recorded occurrence of a track except
// the given playlist, ordered case-insensitively by playlist name for
// deterministic output. The returned slice is a copy.
func (d *DuplicateIndex) OccurrencesExcluding(trackID, playlistID string) []models.PlaylistRef {
	d.mu.Lock()
	defer d.mu.Unlock()

	refs := make([]models.PlaylistRef, 0, len(d.byID[trackID]))
	for _, ref := range d.byID[trackID] {
		if ref.ID != playlistID {
			refs = append(refs, ref)
		}
	}

	models.SortRefs(refs)
	return refs
}

// Entries returns the total number of recorded (track, playlist) pairs.
func (d *DuplicateIndex) Entries() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	for _, refs := range d.byID {
		total += len(refs)
	}
	return total
}

// ApplyIndex is the second pass of a sync run: it walks every playlist's
// tracks and rewrites other_playlists from the now-complete index. Without
// this pass a track's occurrence list would only reflect playlists processed
// before its own, making results depend on processing order.
func ApplyIndex(playlists []models.Playlist, index *DuplicateIndex) {
	for i := range playlists {
		for j := range playlists[i].Tracks {
			track := &playlists[i].Tracks[j]
			track.OtherPlaylists = index.OccurrencesExcluding(track.ID, playlists[i].ID)
		}
	}
}
