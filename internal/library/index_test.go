package library

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yocrita/Yocrify/internal/models"
)

func TestDuplicateIndex(t *testing.T) {
	t.Run("records occurrences per track", func(t *testing.T) {
		index := NewDuplicateIndex()
		index.Record("t1", "p1", "First")
		index.Record("t1", "p2", "Second")
		index.Record("t2", "p1", "First")

		assert.Equal(t, 3, index.Entries())

		refs := index.OccurrencesExcluding("t1", "")
		require.Len(t, refs, 2)
	})

	t.Run("idempotent per pair", func(t *testing.T) {
		index := NewDuplicateIndex()
		index.Record("t1", "p1", "First")
		index.Record("t1", "p1", "First")
		index.Record("t1", "p1", "renamed")

		assert.Equal(t, 1, index.Entries())
	})

	t.Run("ignores empty ids", func(t *testing.T) {
		index := NewDuplicateIndex()
		index.Record("", "p1", "First")
		index.Record("t1", "", "First")

		assert.Zero(t, index.Entries())
	})

	t.Run("excludes the queried playlist", func(t *testing.T) {
		index := NewDuplicateIndex()
		index.Record("t1", "p1", "First")
		index.Record("t1", "p2", "Second")

		refs := index.OccurrencesExcluding("t1", "p1")
		require.Len(t, refs, 1)
		assert.Equal(t, "p2", refs[0].ID)
	})

	t.Run("occurrences ordered by name", func(t *testing.T) {
		index := NewDuplicateIndex()
		index.Record("t1", "p3", "zeta")
		index.Record("t1", "p1", "Alpha")
		index.Record("t1", "p2", "beta")

		refs := index.OccurrencesExcluding("t1", "")
		require.Len(t, refs, 3)
		assert.Equal(t, []string{"Alpha", "beta", "zeta"}, []string{refs[0].Name, refs[1].Name, refs[2].Name})
	})

	t.Run("unknown track yields empty slice", func(t *testing.T) {
		index := NewDuplicateIndex()
		refs := index.OccurrencesExcluding("missing", "p1")
		assert.NotNil(t, refs)
		assert.Empty(t, refs)
	})

	t.Run("concurrent recording keeps every pair", func(t *testing.T) {
		index := NewDuplicateIndex()
		const workers = 8
		const perWorker = 50

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					playlistID := fmt.Sprintf("p%d-%d", w, i)
					index.Record("shared", playlistID, playlistID)
				}
			}(w)
		}
		wg.Wait()

		assert.Equal(t, workers*perWorker, index.Entries())
	})
}

func TestApplyIndex(t *testing.T) {
	buildPlaylists := func() []models.Playlist {
		return []models.Playlist{
			{ID: "p1", Name: "First", Tracks: []models.Track{{ID: "shared"}, {ID: "only1"}}},
			{ID: "p2", Name: "Second", Tracks: []models.Track{{ID: "shared"}}},
		}
	}

	record := func(index *DuplicateIndex, playlists []models.Playlist, order []int) {
		for _, i := range order {
			for _, track := range playlists[i].Tracks {
				index.Record(track.ID, playlists[i].ID, playlists[i].Name)
			}
		}
	}

	t.Run("rewrites occurrence lists from the full index", func(t *testing.T) {
		playlists := buildPlaylists()
		index := NewDuplicateIndex()
		record(index, playlists, []int{0, 1})

		ApplyIndex(playlists, index)

		require.Len(t, playlists[0].Tracks[0].OtherPlaylists, 1)
		assert.Equal(t, "p2", playlists[0].Tracks[0].OtherPlaylists[0].ID)
		assert.Empty(t, playlists[0].Tracks[1].OtherPlaylists)
		require.Len(t, playlists[1].Tracks[0].OtherPlaylists, 1)
		assert.Equal(t, "p1", playlists[1].Tracks[0].OtherPlaylists[0].ID)
	})

	t.Run("result independent of processing order", func(t *testing.T) {
		forward := buildPlaylists()
		forwardIndex := NewDuplicateIndex()
		record(forwardIndex, forward, []int{0, 1})
		ApplyIndex(forward, forwardIndex)

		reverse := buildPlaylists()
		reverseIndex := NewDuplicateIndex()
		record(reverseIndex, reverse, []int{1, 0})
		ApplyIndex(reverse, reverseIndex)

		assert.Equal(t, forward, reverse)
	})
}
