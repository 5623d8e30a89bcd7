package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/services"
	"github.com/Yocrita/Yocrify/internal/shared"
	tu "github.com/Yocrita/Yocrify/internal/testing"
)

// fastOpts keeps test runs quick; the default rate limit would add real
// delays between fetches.
func fastOpts() SyncOpts {
	return SyncOpts{Workers: 4, RateLimit: 10000, CheckpointEvery: 100}
}

func track(id, name string) *services.SpotifyTrack {
	return &services.SpotifyTrack{
		ID:      id,
		Name:    name,
		Artists: []services.TrackArtist{{Name: "Artist " + id}},
		Album:   services.TrackAlbum{Name: "Album", ReleaseDate: "2010-01-01"},
	}
}

// libraryFixture serves three playlists where "shared" appears in p1 and p3.
func libraryFixture() *tu.MockLibraryService {
	return &tu.MockLibraryService{
		PlaylistsFunc: func(ctx context.Context) ([]services.SimplePlaylist, error) {
			return []services.SimplePlaylist{
				{ID: "p1", Name: "First"},
				{ID: "p2", Name: "Second"},
				{ID: "p3", Name: "Third"},
			}, nil
		},
		TracksFunc: func(ctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error) {
			switch playlistID {
			case "p1":
				return []services.PlaylistTrackItem{
					{Track: track("shared", "Shared Song")},
					{Track: track("a", "Alpha")},
					{Track: nil}, // removed from catalog
				}, nil
			case "p2":
				return []services.PlaylistTrackItem{
					{Track: track("b", "Beta")},
				}, nil
			default:
				return []services.PlaylistTrackItem{
					{Track: track("shared", "Shared Song")},
				}, nil
			}
		},
	}
}

// runSync executes a sync and returns the result plus every emitted event.
func runSync(t *testing.T, engine *Engine, userID string) (*SyncResult, []ProgressUpdate, error) {
	t.Helper()

	progress := make(chan ProgressUpdate, 128)
	result, err := engine.Sync(context.Background(), userID, progress)
	close(progress)

	events := []ProgressUpdate{}
	for update := range progress {
		events = append(events, update)
	}
	return result, events, err
}

func TestEngineSync(t *testing.T) {
	t.Run("syncs the full library into one snapshot", func(t *testing.T) {
		store := tu.NewMemoryStore()
		engine := NewEngine(libraryFixture(), store, nil, fastOpts())

		result, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Processed)
		assert.Empty(t, result.Skipped)

		saved, err := store.Load("user1")
		require.NoError(t, err)
		require.Len(t, saved.Playlists, 3)
		assert.Greater(t, saved.LastSync, int64(0))

		// null inner track dropped
		first := saved.PlaylistByID("p1")
		require.NotNil(t, first)
		assert.Equal(t, 2, first.TracksTotal)
	})

	t.Run("cross-playlist occurrences resolved in both directions", func(t *testing.T) {
		store := tu.NewMemoryStore()
		engine := NewEngine(libraryFixture(), store, nil, fastOpts())

		result, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)

		findTrack := func(playlistID, trackID string) *models.Track {
			playlist := result.Snapshot.PlaylistByID(playlistID)
			require.NotNil(t, playlist)
			for i := range playlist.Tracks {
				if playlist.Tracks[i].ID == trackID {
					return &playlist.Tracks[i]
				}
			}
			return nil
		}

		// p1 was processed before p3; the final pass must still see p3
		// from p1's side.
		inFirst := findTrack("p1", "shared")
		require.NotNil(t, inFirst)
		require.Len(t, inFirst.OtherPlaylists, 1)
		assert.Equal(t, "p3", inFirst.OtherPlaylists[0].ID)

		inThird := findTrack("p3", "shared")
		require.NotNil(t, inThird)
		require.Len(t, inThird.OtherPlaylists, 1)
		assert.Equal(t, "p1", inThird.OtherPlaylists[0].ID)

		unique := findTrack("p2", "b")
		require.NotNil(t, unique)
		assert.Empty(t, unique.OtherPlaylists)
	})

	t.Run("events arrive in processing order", func(t *testing.T) {
		engine := NewEngine(libraryFixture(), tu.NewMemoryStore(), nil, fastOpts())

		_, events, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		require.Len(t, events, 6)

		assert.Equal(t, FetchingPlaylists, events[0].Phase)
		for i, id := range []string{"p1", "p2", "p3"} {
			assert.Equal(t, EventProgress, events[i+1].Kind)
			assert.Equal(t, id, events[i+1].PlaylistID)
			assert.Equal(t, i+1, events[i+1].Index)
			assert.Equal(t, 3, events[i+1].Total)
		}
		assert.Equal(t, Finalizing, events[4].Phase)
		assert.Equal(t, EventComplete, events[5].Kind)
		assert.NotNil(t, events[5].Snapshot)
	})

	t.Run("failed playlist is skipped and reported once", func(t *testing.T) {
		service := libraryFixture()
		base := service.TracksFunc
		service.TracksFunc = func(ctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error) {
			if playlistID == "p2" {
				return nil, fmt.Errorf("remote fetch failed")
			}
			return base(ctx, playlistID)
		}

		store := tu.NewMemoryStore()
		engine := NewEngine(service, store, nil, fastOpts())

		result, events, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "p2", result.Skipped[0].ID)

		errorEvents := []ProgressUpdate{}
		for _, event := range events {
			if event.Kind == EventError {
				errorEvents = append(errorEvents, event)
			}
		}
		require.Len(t, errorEvents, 1)
		assert.Equal(t, "p2", errorEvents[0].PlaylistID)
		assert.Equal(t, 2, errorEvents[0].Index)

		saved, err := store.Load("user1")
		require.NoError(t, err)
		assert.Nil(t, saved.PlaylistByID("p2"))
		require.Len(t, saved.Playlists, 2)
	})

	t.Run("partial playlist listing continues with fetched pages", func(t *testing.T) {
		service := libraryFixture()
		service.PlaylistsFunc = func(ctx context.Context) ([]services.SimplePlaylist, error) {
			listing := []services.SimplePlaylist{
				{ID: "p1", Name: "First"},
				{ID: "p2", Name: "Second"},
			}
			return listing, &services.PartialError{Items: 2, Err: shared.ErrPermanentFetch}
		}

		engine := NewEngine(service, tu.NewMemoryStore(), nil, fastOpts())

		result, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)
	})

	t.Run("empty listing failure aborts the run", func(t *testing.T) {
		service := libraryFixture()
		service.PlaylistsFunc = func(ctx context.Context) ([]services.SimplePlaylist, error) {
			return nil, shared.ErrPermanentFetch
		}

		store := tu.NewMemoryStore()
		engine := NewEngine(service, store, nil, fastOpts())

		_, _, err := runSync(t, engine, "user1")
		require.Error(t, err)
		_, loadErr := store.Load("user1")
		assert.Error(t, loadErr)
	})

	t.Run("missing credential fails without retries", func(t *testing.T) {
		service := libraryFixture()
		service.UserFunc = func(ctx context.Context) (*services.UserProfile, error) {
			return nil, shared.ErrNotAuthenticated
		}

		engine := NewEngine(service, tu.NewMemoryStore(), nil, fastOpts())

		_, _, err := runSync(t, engine, "user1")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("second run for the same user is rejected", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})

		service := libraryFixture()
		base := service.TracksFunc
		service.TracksFunc = func(ctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return base(ctx, playlistID)
		}

		engine := NewEngine(service, tu.NewMemoryStore(), nil, fastOpts())

		errs := make(chan error, 1)
		go func() {
			_, err := engine.Sync(context.Background(), "user1", nil)
			errs <- err
		}()

		<-started
		_, err := engine.Sync(context.Background(), "user1", nil)
		assert.ErrorIs(t, err, shared.ErrSyncInProgress)

		close(release)
		require.NoError(t, <-errs)

		// slot freed after the run
		_, err = engine.Sync(context.Background(), "user1", nil)
		assert.NoError(t, err)
	})

	t.Run("max playlists caps the run", func(t *testing.T) {
		opts := fastOpts()
		opts.MaxPlaylists = 1
		engine := NewEngine(libraryFixture(), tu.NewMemoryStore(), nil, opts)

		result, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
	})

	t.Run("last_sync stays monotonic across clock skew", func(t *testing.T) {
		// Checkpoints overwrite the stored snapshot mid-run; the clamp must
		// hold against the previous run's stamp either way.
		cases := map[string]int{
			"without checkpoints": 100,
			"with checkpoints":    1,
		}

		for name, every := range cases {
			t.Run(name, func(t *testing.T) {
				store := tu.NewMemoryStore()
				future := time.Now().Unix() + 10000
				require.NoError(t, store.Save("user1", &models.Snapshot{LastSync: future}))

				opts := fastOpts()
				opts.CheckpointEvery = every
				engine := NewEngine(libraryFixture(), store, nil, opts)

				result, _, err := runSync(t, engine, "user1")
				require.NoError(t, err)
				assert.Equal(t, future+1, result.Snapshot.LastSync)

				stored, loadErr := store.Load("user1")
				require.NoError(t, loadErr)
				assert.Equal(t, future+1, stored.LastSync)
			})
		}
	})

	t.Run("re-running over unchanged data yields identical aggregates", func(t *testing.T) {
		store := tu.NewMemoryStore()
		engine := NewEngine(libraryFixture(), store, nil, fastOpts())

		first, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)

		second, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)

		assert.Greater(t, second.Snapshot.LastSync, first.Snapshot.LastSync)

		require.Len(t, second.Snapshot.Playlists, len(first.Snapshot.Playlists))
		for i, got := range second.Snapshot.Playlists {
			want := first.Snapshot.Playlists[i]
			got.ModifiedAt = want.ModifiedAt
			assert.Equal(t, want, got)
		}
	})

	t.Run("failed final write fails the run", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.SaveErr = errors.New("disk full")

		engine := NewEngine(libraryFixture(), store, nil, fastOpts())

		_, _, err := runSync(t, engine, "user1")
		assert.ErrorIs(t, err, shared.ErrPersistence)
	})

	t.Run("failed checkpoints do not fail the run", func(t *testing.T) {
		// three checkpoint writes fail, the fourth (final) succeeds
		store := &flakyStore{MemoryStore: tu.NewMemoryStore(), failFirst: 3}
		opts := fastOpts()
		opts.CheckpointEvery = 1

		engine := NewEngine(libraryFixture(), store, nil, opts)

		result, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Processed)

		stored, loadErr := store.Load("user1")
		require.NoError(t, loadErr)
		assert.Len(t, stored.Playlists, 3)
	})

	t.Run("cancellation aborts without a final write", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		service := libraryFixture()
		base := service.TracksFunc
		service.TracksFunc = func(tctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error) {
			if playlistID == "p1" {
				return base(tctx, playlistID)
			}
			<-tctx.Done()
			return nil, tctx.Err()
		}

		store := tu.NewMemoryStore()
		engine := NewEngine(service, store, nil, fastOpts())

		progress := make(chan ProgressUpdate, 128)
		done := make(chan error, 1)
		go func() {
			_, err := engine.Sync(ctx, "user1", progress)
			done <- err
		}()

		// wait for the first processed playlist, then cancel
		for update := range progress {
			if update.Kind == EventProgress && update.PlaylistID == "p1" {
				cancel()
				break
			}
		}

		err := <-done
		assert.ErrorIs(t, err, context.Canceled)
		_, loadErr := store.Load("user1")
		assert.Error(t, loadErr)
		cancel()
	})

	t.Run("checkpoints written incrementally", func(t *testing.T) {
		store := &countingStore{MemoryStore: tu.NewMemoryStore()}
		opts := fastOpts()
		opts.CheckpointEvery = 1

		engine := NewEngine(libraryFixture(), store, nil, opts)

		_, _, err := runSync(t, engine, "user1")
		require.NoError(t, err)

		// one checkpoint per playlist plus the final write
		assert.Equal(t, 4, store.saves)
	})
}

type flakyStore struct {
	*tu.MemoryStore
	failFirst int
	saves     int
}

func (s *flakyStore) Save(userID string, snapshot *models.Snapshot) error {
	s.saves++
	if s.saves <= s.failFirst {
		return errors.New("disk full")
	}
	return s.MemoryStore.Save(userID, snapshot)
}

type countingStore struct {
	*tu.MemoryStore
	saves int
}

func (s *countingStore) Save(userID string, snapshot *models.Snapshot) error {
	s.saves++
	return s.MemoryStore.Save(userID, snapshot)
}
