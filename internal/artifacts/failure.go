package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/renewable-watch/internal/types"
)

// FailureRecord marks a project as failed for the run, with enough context
// to diagnose it. Clearing the marker makes the project eligible again.
type FailureRecord struct {
	ProjectID int         `json:"project_id"`
	Stage     types.Stage `json:"stage"`
	Error     string      `json:"error"`
	RunID     string      `json:"run_id,omitempty"`
	FailedAt  time.Time   `json:"failed_at"`
}

// FailurePath returns the failure marker path for a project.
func (s *Store) FailurePath(projectID int) string {
	return filepath.Join(s.root, failedDir, fmt.Sprintf("%d.json", projectID))
}

// SaveFailure persists a failure marker for the project.
func (s *Store) SaveFailure(record *FailureRecord) error {
	if record.FailedAt.IsZero() {
		record.FailedAt = time.Now().UTC()
	}
	return s.writeJSON(s.FailurePath(record.ProjectID), record)
}

// LoadFailure reads the failure marker, or nil if absent.
func (s *Store) LoadFailure(projectID int) (*FailureRecord, error) {
	var record FailureRecord
	ok, err := s.readJSON(s.FailurePath(projectID), &record)
	if err != nil || !ok {
		return nil, err
	}
	return &record, nil
}

// HasFailure reports whether a failure marker exists.
func (s *Store) HasFailure(projectID int) bool {
	return exists(s.FailurePath(projectID))
}

// ClearFailure removes the failure marker so the project can be reprocessed.
// Clearing an absent marker is not an error.
func (s *Store) ClearFailure(projectID int) error {
	err := os.Remove(s.FailurePath(projectID))
	if err != nil && !os.IsNotExist(err) {
		return &StoreError{Path: s.FailurePath(projectID), Message: "failed to remove failure marker", Cause: err}
	}
	return nil
}

// ListFailureIDs returns the project IDs with a failure marker, ascending.
func (s *Store) ListFailureIDs() ([]int, error) {
	return listIDs(filepath.Join(s.root, failedDir))
}
