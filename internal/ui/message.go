package ui

import (
	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/tasks"
)

// progressUpdateMsg carries one sync engine event into the Update loop.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg is delivered once the engine run has returned and the
// progress channel has drained.
type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}

// snapshotLoadedMsg is delivered when the stored snapshot has been read.
type snapshotLoadedMsg struct {
	snapshot *models.Snapshot
	err      error
}
