package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/tasks"
)

// maxLogLines bounds the scrollback kept for the live event feed.
const maxLogLines = 12

// SyncModel drives a library sync run, rendering engine progress as it arrives.
type SyncModel struct {
	ctx          context.Context
	engine       *tasks.Engine
	userID       string
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	current      tasks.ProgressUpdate
	lines        []string
	skipped      []models.PlaylistRef
	result       *tasks.SyncResult
	done         bool
	err          error
	help         help.Model
	keys         keyMap
}

// NewSyncModel creates a sync TUI model bound to an engine and user.
func NewSyncModel(ctx context.Context, engine *tasks.Engine, userID string) *SyncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title
	return &SyncModel{
		ctx:     ctx,
		engine:  engine,
		userID:  userID,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init kicks off the sync run and the spinner tick loop.
func (m *SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSync())
}

// Update handles incoming messages and updates the model state.
func (m *SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.current = tasks.ProgressUpdate(msg)
		m.appendLine(m.current)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders either the live run feed or the final summary.
func (m *SyncModel) View() string {
	if m.done {
		return m.renderResult()
	}
	return m.renderRun()
}

func (m *SyncModel) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Sync(m.ctx, m.userID, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *SyncModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *SyncModel) appendLine(update tasks.ProgressUpdate) {
	var line string
	switch update.Kind {
	case tasks.EventError:
		line = styles.warn.Render(fmt.Sprintf("✗ %s (skipped)", update.PlaylistName))
		if update.PlaylistID != "" {
			m.skipped = append(m.skipped, models.PlaylistRef{ID: update.PlaylistID, Name: update.PlaylistName})
		}
	case tasks.EventComplete:
		line = styles.ok.Render("✓ snapshot saved")
	default:
		if update.PlaylistName != "" {
			line = fmt.Sprintf("✓ %s", update.PlaylistName)
		} else {
			line = update.Message
		}
	}

	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func (m *SyncModel) renderRun() string {
	title := styles.title.Render("Syncing Library")

	var status string
	switch m.current.Phase {
	case tasks.FetchingPlaylists:
		status = "Fetching playlists..."
	case tasks.ProcessingPlaylist:
		status = fmt.Sprintf("Processing playlists (%d/%d)", m.current.Index, m.current.Total)
	case tasks.Finalizing:
		status = "Resolving duplicates and saving..."
	default:
		status = "Starting..."
	}

	feed := strings.Join(m.lines, "\n")
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s", title, m.spinner.View(), status, feed, helpView)
}

func (m *SyncModel) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf("\nPlaylists synced: %d", m.result.Processed)

	var skipped string
	if len(m.result.Skipped) > 0 {
		skipped = "\n" + styles.warn.Render(fmt.Sprintf("Skipped %d playlists:", len(m.result.Skipped)))
		for _, ref := range m.result.Skipped {
			skipped += fmt.Sprintf("\n  • %s", ref.Name)
		}
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, skipped, helpView)
}
