// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/services"
)

// MockLibraryService is a configurable test double for [services.LibraryService].
// Zero values return empty data; assign the function fields to override.
type MockLibraryService struct {
	UserFunc      func(ctx context.Context) (*services.UserProfile, error)
	PlaylistsFunc func(ctx context.Context) ([]services.SimplePlaylist, error)
	TracksFunc    func(ctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error)
}

func (m *MockLibraryService) CurrentUser(ctx context.Context) (*services.UserProfile, error) {
	if m.UserFunc != nil {
		return m.UserFunc(ctx)
	}
	return &services.UserProfile{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockLibraryService) AllPlaylists(ctx context.Context) ([]services.SimplePlaylist, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return []services.SimplePlaylist{}, nil
}

func (m *MockLibraryService) AllPlaylistTracks(ctx context.Context, playlistID string) ([]services.PlaylistTrackItem, error) {
	if m.TracksFunc != nil {
		return m.TracksFunc(ctx, playlistID)
	}
	return []services.PlaylistTrackItem{}, nil
}

func (m *MockLibraryService) Name() string { return "mock" }

// MemoryStore is an in-memory snapshot store for engine tests.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.Snapshot
	SaveErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*models.Snapshot)}
}

func (s *MemoryStore) Save(userID string, snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snapshots[userID] = snapshot
	return nil
}

func (s *MemoryStore) Load(userID string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[userID]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return snapshot, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
