// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI covers two workflows:
//  1. [SyncView] / [ResultView] : Run a library sync while streaming live progress
//  2. [LibraryView] / [DetailView] : Browse a synced snapshot and inspect playlists
//
// Each [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// messages via the Msg union type. Progress updates flow through a channel from the
// sync Engine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
