// Package artifacts persists per-project pipeline outputs as flat JSON files.
// Every stage writes one file named by project ID; presence of a file is what
// marks a stage complete, so resume needs no separate bookkeeping.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/renewable-watch/internal/schemas"
	"github.com/jonathan/renewable-watch/internal/types"
)

const (
	queriesDir = "queries"
	searchDir  = "search"
	contentDir = "content"
	summaryDir = "summary"
	failedDir  = "failed"
	runsDir    = "runs"
)

// Store reads and writes pipeline artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. Directories are created lazily on
// first write; call EnsureDirs to create them eagerly.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureDirs creates the full artifact directory layout.
func (s *Store) EnsureDirs() error {
	for _, sub := range []string{queriesDir, searchDir, contentDir, summaryDir, failedDir, runsDir} {
		if err := os.MkdirAll(filepath.Join(s.root, sub), 0755); err != nil {
			return &StoreError{Path: filepath.Join(s.root, sub), Message: "failed to create directory", Cause: err}
		}
	}
	return nil
}

// QueriesPath returns the queries artifact path for a project.
func (s *Store) QueriesPath(projectID int) string {
	return s.path(queriesDir, projectID)
}

// SearchPath returns the search artifact path for a project.
func (s *Store) SearchPath(projectID int) string {
	return s.path(searchDir, projectID)
}

// ContentPath returns the content artifact path for a project.
func (s *Store) ContentPath(projectID int) string {
	return s.path(contentDir, projectID)
}

// SummaryPath returns the summary artifact path for a project.
func (s *Store) SummaryPath(projectID int) string {
	return s.path(summaryDir, projectID)
}

func (s *Store) path(sub string, projectID int) string {
	return filepath.Join(s.root, sub, fmt.Sprintf("%d.json", projectID))
}

// SaveQueries persists the query set artifact.
func (s *Store) SaveQueries(set *types.SearchQuerySet) error {
	return s.writeJSON(s.QueriesPath(set.ProjectID), set)
}

// LoadQueries reads the query set artifact, or nil if absent.
func (s *Store) LoadQueries(projectID int) (*types.SearchQuerySet, error) {
	var set types.SearchQuerySet
	ok, err := s.readJSON(s.QueriesPath(projectID), &set)
	if err != nil || !ok {
		return nil, err
	}
	return &set, nil
}

// HasQueries reports whether the query artifact exists.
func (s *Store) HasQueries(projectID int) bool {
	return exists(s.QueriesPath(projectID))
}

// SaveSearch persists the search results artifact.
func (s *Store) SaveSearch(results *types.SearchResults) error {
	return s.writeJSON(s.SearchPath(results.ProjectID), results)
}

// LoadSearch reads the search results artifact, or nil if absent.
func (s *Store) LoadSearch(projectID int) (*types.SearchResults, error) {
	var results types.SearchResults
	ok, err := s.readJSON(s.SearchPath(projectID), &results)
	if err != nil || !ok {
		return nil, err
	}
	return &results, nil
}

// HasSearch reports whether the search artifact exists.
func (s *Store) HasSearch(projectID int) bool {
	return exists(s.SearchPath(projectID))
}

// SaveContent persists the extracted content artifact.
func (s *Store) SaveContent(set *types.ContentSet) error {
	return s.writeJSON(s.ContentPath(set.ProjectID), set)
}

// LoadContent reads the content artifact, or nil if absent.
func (s *Store) LoadContent(projectID int) (*types.ContentSet, error) {
	var set types.ContentSet
	ok, err := s.readJSON(s.ContentPath(projectID), &set)
	if err != nil || !ok {
		return nil, err
	}
	return &set, nil
}

// HasContent reports whether the content artifact exists.
func (s *Store) HasContent(projectID int) bool {
	return exists(s.ContentPath(projectID))
}

// SaveSummary validates the summary against the embedded schema and persists
// it. Invalid summaries never reach disk.
func (s *Store) SaveSummary(summary *types.OppositionSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return &StoreError{Path: s.SummaryPath(summary.ProjectID), Message: "failed to marshal summary", Cause: err}
	}
	if err := schemas.ValidateSummaryJSON(string(data)); err != nil {
		return &StoreError{Path: s.SummaryPath(summary.ProjectID), Message: "summary failed schema validation", Cause: err}
	}
	return s.writeBytes(s.SummaryPath(summary.ProjectID), data)
}

// LoadSummary reads the summary artifact, or nil if absent.
func (s *Store) LoadSummary(projectID int) (*types.OppositionSummary, error) {
	var summary types.OppositionSummary
	ok, err := s.readJSON(s.SummaryPath(projectID), &summary)
	if err != nil || !ok {
		return nil, err
	}
	return &summary, nil
}

// HasSummary reports whether the summary artifact exists.
func (s *Store) HasSummary(projectID int) bool {
	return exists(s.SummaryPath(projectID))
}

// ListSummaryIDs returns the project IDs with a persisted summary, ascending.
func (s *Store) ListSummaryIDs() ([]int, error) {
	return listIDs(filepath.Join(s.root, summaryDir))
}

// LoadAllSummaries reads every summary artifact keyed by project ID.
func (s *Store) LoadAllSummaries() (map[int]*types.OppositionSummary, error) {
	ids, err := s.ListSummaryIDs()
	if err != nil {
		return nil, err
	}

	summaries := make(map[int]*types.OppositionSummary, len(ids))
	for _, id := range ids {
		summary, err := s.LoadSummary(id)
		if err != nil {
			return nil, err
		}
		if summary != nil {
			summaries[id] = summary
		}
	}
	return summaries, nil
}

// StageFor derives a project's pipeline stage from which artifacts exist.
// A failure marker wins over everything; otherwise the furthest artifact
// decides. A summary on disk means the project is done.
func (s *Store) StageFor(projectID int) types.Stage {
	switch {
	case s.HasFailure(projectID):
		return types.StageFailed
	case s.HasSummary(projectID):
		return types.StageDone
	case s.HasContent(projectID):
		return types.StageExtracted
	case s.HasSearch(projectID):
		return types.StageSearched
	case s.HasQueries(projectID):
		return types.StageQueriesReady
	default:
		return types.StagePending
	}
}

// writeJSON marshals v with indentation and writes it atomically.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StoreError{Path: path, Message: "failed to marshal JSON", Cause: err}
	}
	return s.writeBytes(path, data)
}

// writeBytes writes data to path via a temp file in the same directory plus
// rename, so a crash never leaves a partial artifact behind.
func (s *Store) writeBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StoreError{Path: path, Message: "failed to create directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &StoreError{Path: path, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StoreError{Path: path, Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Path: path, Message: "failed to close temp file", Cause: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Path: path, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}

// readJSON unmarshals path into v. Returns false with no error when the file
// does not exist.
func (s *Store) readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StoreError{Path: path, Message: "failed to read artifact", Cause: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &StoreError{Path: path, Message: "failed to parse artifact", Cause: err}
	}
	return true, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// listIDs collects the numeric IDs of <id>.json files in dir, ascending.
func listIDs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StoreError{Path: dir, Message: "failed to list directory", Cause: err}
	}

	var ids []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.Ints(ids)
	return ids, nil
}
