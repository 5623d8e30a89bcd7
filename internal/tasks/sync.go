package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Yocrita/Yocrify/internal/library"
	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/services"
	"github.com/Yocrita/Yocrify/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// SnapshotStore is the persistence collaborator for sync runs: one snapshot
// per user, full overwrite on save.
type SnapshotStore interface {
	Save(userID string, snapshot *models.Snapshot) error
	Load(userID string) (*models.Snapshot, error)
}

// SyncOpts tunes a sync run.
type SyncOpts struct {
	Workers         int     // concurrent track prefetches (default 4)
	RateLimit       float64 // remote requests per second (default 5)
	CheckpointEvery int     // playlists between checkpoint writes (default 5)
	MaxPlaylists    int     // cap on playlists processed; 0 means no cap
}

func (o SyncOpts) withDefaults() SyncOpts {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Workers > 8 {
		o.Workers = 8
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = 5
	}
	return o
}

// SyncResult is the outcome of a completed run. A run with skipped playlists
// is still a success; the skipped references let the caller inform the user.
type SyncResult struct {
	Snapshot  *models.Snapshot
	Processed int
	Skipped   []models.PlaylistRef
}

// Engine orchestrates full-library sync runs.
//
// A run is a sequential pipeline over the playlist listing: track fetches for
// upcoming playlists are prefetched by a bounded worker pool, but results are
// consumed strictly in listing order, so the duplicate index has a single
// writer and progress events and checkpoints stay ordered.
type Engine struct {
	service services.LibraryService
	store   SnapshotStore
	logger  *log.Logger
	limiter *rate.Limiter
	opts    SyncOpts

	mu     sync.Mutex
	active map[string]struct{}
}

// NewEngine creates a sync engine with the provided collaborators.
func NewEngine(service services.LibraryService, store SnapshotStore, logger *log.Logger, opts SyncOpts) *Engine {
	opts = opts.withDefaults()
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Engine{
		service: service,
		store:   store,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		opts:    opts,
	}
}

// acquire claims the per-user sync slot. Two concurrent runs for the same
// user must not interleave snapshot writes, so a second request is rejected
// rather than queued.
func (e *Engine) acquire(userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		e.active = make(map[string]struct{})
	}
	if _, busy := e.active[userID]; busy {
		return fmt.Errorf("%w: %s", shared.ErrSyncInProgress, userID)
	}
	e.active[userID] = struct{}{}
	return nil
}

func (e *Engine) release(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, userID)
}

// emit delivers an update in order, blocking until the sink accepts it or
// the run is cancelled. Events are never dropped silently.
func (e *Engine) emit(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) bool {
	if progress == nil {
		return true
	}
	select {
	case progress <- update:
		return true
	case <-ctx.Done():
		return false
	}
}

// fetchResult carries one playlist's track listing from the prefetch pool to
// the ordered consumer.
type fetchResult struct {
	items []services.PlaylistTrackItem
	err   error
}

// Sync performs a full library sync for one user and streams progress events
// to the provided channel. The caller owns the channel; Sync never closes it.
//
// Per-playlist failures are reported and skipped; the run fails outright only
// on a missing credential, total listing failure, cancellation, or a failed
// final snapshot write.
func (e *Engine) Sync(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.service == nil || e.store == nil {
		return nil, fmt.Errorf("engine not fully configured")
	}

	if err := e.acquire(userID); err != nil {
		return nil, err
	}
	defer e.release(userID)

	logger := shared.WithLogger(e.logger, "user", userID)

	// Credential check up front: no valid token means the run fails
	// immediately with an authentication error, no retries.
	if _, err := e.service.CurrentUser(ctx); err != nil {
		if services.IsAuthError(err) {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}

	// The previous run's stamp is read once up front: checkpoints overwrite
	// the stored snapshot mid-run, so reading it any later would clamp
	// against our own writes instead of the last successful sync's.
	prevSync := e.lastSyncStamp(userID)

	e.emit(ctx, progress, fetchingPlaylistsUpdate())

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	listing, err := e.service.AllPlaylists(ctx)
	if err != nil {
		var partial *services.PartialError
		if errors.As(err, &partial) && len(listing) > 0 {
			logger.Warn("playlist listing incomplete, continuing with fetched pages",
				"fetched", len(listing), "error", partial.Err)
		} else {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
	}

	if e.opts.MaxPlaylists > 0 && len(listing) > e.opts.MaxPlaylists {
		listing = listing[:e.opts.MaxPlaylists]
	}

	total := len(listing)
	logger.Info("starting sync", "playlists", total)

	results := e.prefetch(ctx, listing)

	index := library.NewDuplicateIndex()
	playlists := make([]models.Playlist, 0, total)
	var skipped []models.PlaylistRef

	for i, meta := range listing {
		var res fetchResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if res.err != nil {
			logger.Error("playlist skipped", "playlist", meta.Name, "error", res.err)
			skipped = append(skipped, models.PlaylistRef{ID: meta.ID, Name: meta.Name})
			perr := fmt.Errorf("%w: %v", shared.ErrPlaylistProcessing, res.err)
			if !e.emit(ctx, progress, playlistFailedUpdate(i+1, total, meta.ID, meta.Name, perr)) {
				return nil, ctx.Err()
			}
			continue
		}

		tracks := library.NormalizeAll(res.items)
		for _, track := range tracks {
			index.Record(track.ID, meta.ID, meta.Name)
		}

		playlists = append(playlists, library.Optimize(library.PlaylistMeta{
			ID:          meta.ID,
			Name:        meta.Name,
			Description: meta.Description,
			Images:      meta.Images,
			Owner:       meta.Owner,
		}, tracks, index))

		if !e.emit(ctx, progress, playlistDoneUpdate(i+1, total, meta.ID, meta.Name)) {
			return nil, ctx.Err()
		}

		if len(playlists)%e.opts.CheckpointEvery == 0 {
			e.checkpoint(logger, userID, playlists, prevSync)
		}
	}

	if !e.emit(ctx, progress, finalizingUpdate(total)) {
		return nil, ctx.Err()
	}

	library.ApplyIndex(playlists, index)

	snapshot := &models.Snapshot{
		Playlists: playlists,
		LastSync:  stampAfter(prevSync),
	}

	if err := e.store.Save(userID, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	e.emit(ctx, progress, completeUpdate(snapshot, skipped))
	logger.Info("sync complete", "playlists", len(playlists), "skipped", len(skipped), "tracks_indexed", index.Entries())

	return &SyncResult{
		Snapshot:  snapshot,
		Processed: len(playlists),
		Skipped:   skipped,
	}, nil
}

// prefetch launches the bounded worker pool fetching each playlist's full
// track pagination. Each playlist gets its own buffered result slot, so
// out-of-order completions wait there until the consumer reaches them. The
// semaphore stops new fetches promptly once ctx is cancelled.
func (e *Engine) prefetch(ctx context.Context, listing []services.SimplePlaylist) []chan fetchResult {
	results := make([]chan fetchResult, len(listing))
	for i := range results {
		results[i] = make(chan fetchResult, 1)
	}

	sem := semaphore.NewWeighted(int64(e.opts.Workers))

	go func() {
		for i, meta := range listing {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] <- fetchResult{err: err}
				continue
			}

			go func(slot chan<- fetchResult, playlistID string) {
				defer sem.Release(1)

				if err := e.limiter.Wait(ctx); err != nil {
					slot <- fetchResult{err: err}
					return
				}

				items, err := e.service.AllPlaylistTracks(ctx, playlistID)
				if err != nil {
					// A partial track listing would persist an incomplete
					// playlist; treat it the same as a full fetch failure.
					slot <- fetchResult{err: err}
					return
				}
				slot <- fetchResult{items: items}
			}(results[i], meta.ID)
		}
	}()

	return results
}

// checkpoint writes a best-effort snapshot of progress so far. Other
// playlist occurrence lists are incomplete until the final pass; that is
// acceptable for a crash-recovery view. Checkpoint failures are logged, not
// fatal; only the final write decides the run outcome.
func (e *Engine) checkpoint(logger *log.Logger, userID string, playlists []models.Playlist, prevSync int64) {
	snapshot := &models.Snapshot{
		Playlists: playlists,
		LastSync:  stampAfter(prevSync),
	}
	if err := e.store.Save(userID, snapshot); err != nil {
		logger.Warn("checkpoint write failed", "playlists", len(playlists), "error", err)
		return
	}
	logger.Debug("checkpoint written", "playlists", len(playlists))
}

// lastSyncStamp reads the stored snapshot's last_sync, or zero when no
// previous sync exists.
func (e *Engine) lastSyncStamp(userID string) int64 {
	prev, err := e.store.Load(userID)
	if err != nil || prev == nil {
		return 0
	}
	return prev.LastSync
}

// stampAfter returns a last_sync strictly greater than the previous
// successful run's, keeping the stamp monotonic even across clock skew.
// Checkpoints use the same clamp so a mid-run write never regresses below
// the prior run's stamp either.
func stampAfter(prev int64) int64 {
	now := time.Now().Unix()
	if now <= prev {
		return prev + 1
	}
	return now
}
