package tasks

import (
	"fmt"

	"github.com/Yocrita/Yocrify/internal/models"
)

// EventKind classifies a progress event for the consuming sink.
type EventKind int

const (
	EventProgress EventKind = iota
	EventError
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	case EventComplete:
		return "complete"
	default:
		return ""
	}
}

// Phase identifies where in a sync run an event was emitted.
type Phase int

const (
	FetchingPlaylists Phase = iota
	ProcessingPlaylist
	Finalizing
)

func (p Phase) String() string {
	switch p {
	case FetchingPlaylists:
		return "fetching_playlists"
	case ProcessingPlaylist:
		return "processing_playlist"
	case Finalizing:
		return "finalizing"
	default:
		return ""
	}
}

// ProgressUpdate is one event of a sync run, delivered in processing order
// over an ordered channel so a streaming transport can forward it live.
//
// Per-playlist failures are reported as events too; they never silently
// skip a slot in the sequence.
type ProgressUpdate struct {
	Kind         EventKind        `json:"type"`
	Phase        Phase            `json:"-"`
	Index        int              `json:"current,omitempty"`
	Total        int              `json:"total,omitempty"`
	PlaylistID   string           `json:"playlist_id,omitempty"`
	PlaylistName string           `json:"playlist_name,omitempty"`
	Message      string           `json:"message,omitempty"`
	Snapshot     *models.Snapshot `json:"snapshot,omitempty"`
	Skipped      []models.PlaylistRef `json:"skipped,omitempty"`
}

func fetchingPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Kind:    EventProgress,
		Phase:   FetchingPlaylists,
		Message: "Fetching playlist listing...",
	}
}

func playlistDoneUpdate(index, total int, id, name string) ProgressUpdate {
	return ProgressUpdate{
		Kind:         EventProgress,
		Phase:        ProcessingPlaylist,
		Index:        index,
		Total:        total,
		PlaylistID:   id,
		PlaylistName: name,
		Message:      fmt.Sprintf("[%d/%d] %s", index, total, name),
	}
}

func playlistFailedUpdate(index, total int, id, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:         EventError,
		Phase:        ProcessingPlaylist,
		Index:        index,
		Total:        total,
		PlaylistID:   id,
		PlaylistName: name,
		Message:      fmt.Sprintf("[%d/%d] %s: %v", index, total, name, err),
	}
}

func finalizingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Kind:    EventProgress,
		Phase:   Finalizing,
		Index:   total,
		Total:   total,
		Message: "Resolving cross-playlist occurrences...",
	}
}

func completeUpdate(snapshot *models.Snapshot, skipped []models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Kind:     EventComplete,
		Phase:    Finalizing,
		Message:  fmt.Sprintf("Synced %d playlists", len(snapshot.Playlists)),
		Snapshot: snapshot,
		Skipped:  skipped,
	}
}
