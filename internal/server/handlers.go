package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/shared"
	"github.com/charmbracelet/log"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Load(userID string) (*models.Snapshot, error)
}

// LibraryHandler serves the persisted snapshot: the playlist listing and
// individual optimized playlists.
type LibraryHandler struct {
	snapshots SnapshotReader
	logger    *log.Logger
}

// NewLibraryHandler creates a LibraryHandler over the given snapshot store.
func NewLibraryHandler(snapshots SnapshotReader, logger *log.Logger) *LibraryHandler {
	return &LibraryHandler{snapshots: snapshots, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *LibraryHandler) Routes() []string {
	return []string{"/playlists", "/playlist/"}
}

func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	snapshot, err := h.snapshots.Load(userID)
	if err != nil {
		if errors.Is(err, shared.ErrSnapshotNotFound) {
			writeError(w, http.StatusNotFound, "no_data")
			return
		}
		h.logger.Error("snapshot load failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load library")
		return
	}

	if id, found := strings.CutPrefix(r.URL.Path, "/playlist/"); found && id != "" {
		h.servePlaylist(w, snapshot, id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"playlists": snapshot.Playlists,
		"last_sync": snapshot.LastSync,
	})
}

func (h *LibraryHandler) servePlaylist(w http.ResponseWriter, snapshot *models.Snapshot, id string) {
	playlist := snapshot.PlaylistByID(id)
	if playlist == nil {
		writeError(w, http.StatusNotFound, "playlist_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"playlist": playlist,
	})
}
