package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Yocrita/Yocrify/internal/tasks"
	"github.com/charmbracelet/log"
)

// SyncRunner starts a sync run and streams its events. Satisfied by
// *tasks.Engine.
type SyncRunner interface {
	Sync(ctx context.Context, userID string, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error)
}

// SyncHandler runs a library sync and streams progress to the client as
// Server-Sent Events. Each engine event becomes one SSE frame, flushed
// immediately so the client can render a live progress indicator; client
// disconnect cancels the run's context, which stops further remote fetches.
type SyncHandler struct {
	engine SyncRunner
	logger *log.Logger
}

// NewSyncHandler creates a SyncHandler around the given engine.
func NewSyncHandler(engine SyncRunner, logger *log.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{"/sync"}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The request context doubles as the run's cancellation signal.
	ctx := r.Context()
	progress := make(chan tasks.ProgressUpdate, 16)

	type outcome struct {
		result *tasks.SyncResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := h.engine.Sync(ctx, userID, progress)
		close(progress)
		done <- outcome{result: result, err: err}
	}()

	for update := range progress {
		h.writeEvent(w, flusher, update.Kind.String(), update)
	}

	run := <-done
	if run.err != nil {
		h.logger.Error("sync run failed", "user", userID, "error", run.err)
		h.writeEvent(w, flusher, tasks.EventError.String(), map[string]any{
			"type":    "error",
			"message": run.err.Error(),
		})
	}
}

// writeEvent writes one SSE frame and flushes it to the client.
func (h *SyncHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
