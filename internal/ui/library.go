package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Yocrita/Yocrify/internal/models"
)

// ViewState represents the current view in the library browser.
type ViewState int

const (
	LibraryView ViewState = iota
	DetailView
)

// SnapshotLoader reads the stored snapshot for the browser.
type SnapshotLoader func() (*models.Snapshot, error)

// playlistItem wraps [models.Playlist] to implement list.Item.
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks • %s", i.playlist.TracksTotal, i.playlist.DurationFormatted)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement list.Item.
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if n := len(i.track.OtherPlaylists); n > 0 {
		desc = fmt.Sprintf("%s • also in %d", desc, n)
	}
	return desc
}

// LibraryModel browses an existing snapshot: a playlist list with a track
// detail view per playlist.
type LibraryModel struct {
	load         SnapshotLoader
	view         ViewState
	width        int
	height       int
	snapshot     *models.Snapshot
	playlistList list.Model
	trackList    list.Model
	selected     *models.Playlist
	err          error
	keys         keyMap
}

// NewLibraryModel creates a browser model over a snapshot loader.
func NewLibraryModel(load SnapshotLoader) *LibraryModel {
	return &LibraryModel{
		load: load,
		view: LibraryView,
		keys: newKeyMap(),
	}
}

// Init loads the snapshot from the store.
func (m *LibraryModel) Init() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.load()
		return snapshotLoadedMsg{snapshot: snapshot, err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *LibraryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case snapshotLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.snapshot = msg.snapshot
		items := make([]list.Item, len(msg.snapshot.Playlists))
		for i, pl := range msg.snapshot.Playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Synced Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *LibraryModel) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *LibraryModel) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(playlistItem); ok {
				m.openDetail(item.playlist)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *LibraryModel) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = LibraryView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *LibraryModel) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case DetailView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *LibraryModel) openDetail(playlist models.Playlist) {
	m.selected = &playlist
	items := make([]list.Item, len(playlist.Tracks))
	for i, track := range playlist.Tracks {
		items[i] = trackItem{track: track}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", playlist.Name)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.view = DetailView
}

func (m *LibraryModel) renderLibrary() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := styles.help.Render(renderBindings(helpKeys))
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *LibraryModel) renderDetail() string {
	var summary string
	if m.selected != nil {
		summary = fmt.Sprintf("%s • %d artists", m.selected.DurationFormatted, m.selected.ArtistsTotal)
		if years := m.selected.YearsRange; len(years) == 2 {
			summary = fmt.Sprintf("%s • %d-%d", summary, years[0], years[1])
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := styles.help.Render(renderBindings(helpKeys))
	return fmt.Sprintf("%s\n%s\n\n%s", m.trackList.View(), summary, helpView)
}

func renderBindings(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	return strings.Join(parts, " • ")
}
