package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yocrita/Yocrify/internal/models"
	"github.com/Yocrita/Yocrify/internal/shared"
)

// SnapshotRepository persists one library snapshot per user as a JSON
// payload. Save fully replaces the previous snapshot; there is no history.
//
// Implements tasks.SnapshotStore.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the user's snapshot, overwriting any previous one.
func (r *SnapshotRepository) Save(userID string, snapshot *models.Snapshot) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", shared.ErrInvalidInput)
	}
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (user_id, payload, last_sync, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			last_sync = excluded.last_sync,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, userID, string(payload), snapshot.LastSync, time.Now()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Load retrieves the user's snapshot. Returns [shared.ErrSnapshotNotFound]
// when the user has never synced.
func (r *SnapshotRepository) Load(userID string) (*models.Snapshot, error) {
	var payload string

	err := r.db.QueryRow("SELECT payload FROM snapshots WHERE user_id = ?", userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}

// Delete removes the user's snapshot.
func (r *SnapshotRepository) Delete(userID string) error {
	result, err := r.db.Exec("DELETE FROM snapshots WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, userID)
	}

	return nil
}

// LastSync returns the stored last_sync for a user without decoding the full
// payload, or zero when no snapshot exists.
func (r *SnapshotRepository) LastSync(userID string) (int64, error) {
	var lastSync int64

	err := r.db.QueryRow("SELECT last_sync FROM snapshots WHERE user_id = ?", userID).Scan(&lastSync)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read last_sync: %w", err)
	}

	return lastSync, nil
}
