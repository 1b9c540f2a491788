package artifacts

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ProjectOutcome records how one project ended within a run.
type ProjectOutcome struct {
	ProjectID int    `json:"project_id"`
	Outcome   string `json:"outcome"` // done, failed or skipped
}

// RunManifest records one analyze invocation: what was attempted and how it
// ended. Manifests are append-only history; nothing reads them on resume.
type RunManifest struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
	Workers    int              `json:"workers"`
	Projects   int              `json:"projects"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Outcomes   []ProjectOutcome `json:"outcomes,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RunPath returns the manifest path for a run ID.
func (s *Store) RunPath(runID string) string {
	return filepath.Join(s.root, runsDir, runID+".json")
}

// SaveRunManifest persists a run manifest.
func (s *Store) SaveRunManifest(manifest *RunManifest) error {
	return s.writeJSON(s.RunPath(manifest.RunID), manifest)
}

// LoadRunManifest reads a run manifest, or nil if absent.
func (s *Store) LoadRunManifest(runID string) (*RunManifest, error) {
	var manifest RunManifest
	ok, err := s.readJSON(s.RunPath(runID), &manifest)
	if err != nil || !ok {
		return nil, err
	}
	return &manifest, nil
}

// LatestRun returns the most recently started run manifest, or nil when no
// runs have been recorded.
func (s *Store) LatestRun() (*RunManifest, error) {
	dir := filepath.Join(s.root, runsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Path: dir, Message: "failed to list runs", Cause: err}
	}

	var latest *RunManifest
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		runID := entry.Name()[:len(entry.Name())-len(".json")]
		manifest, err := s.LoadRunManifest(runID)
		if err != nil || manifest == nil {
			continue
		}
		if latest == nil || manifest.StartedAt.After(latest.StartedAt) {
			latest = manifest
		}
	}
	return latest, nil
}
