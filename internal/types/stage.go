// Package types provides type definitions for structured data used throughout the renewable-watch system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// Stage is the per-project pipeline state. Progression is strict:
// pending → queries_ready → searched → extracted → classified → done,
// with failed as a terminal state reachable from any stage on a fatal error.
type Stage string

const (
	// StagePending means no artifacts exist for the project yet
	StagePending Stage = "pending"
	// StageQueriesReady means the query artifact is persisted
	StageQueriesReady Stage = "queries_ready"
	// StageSearched means the search artifact is persisted
	StageSearched Stage = "searched"
	// StageExtracted means the content artifact is persisted
	StageExtracted Stage = "extracted"
	// StageClassified means the classifier produced a verdict for this run
	StageClassified Stage = "classified"
	// StageDone means the summary artifact is persisted; the project is complete
	StageDone Stage = "done"
	// StageFailed is terminal for the project until a rerun clears the marker
	StageFailed Stage = "failed"
)

// Next returns the stage that follows s in the normal progression.
// Terminal stages return themselves.
func (s Stage) Next() Stage {
	switch s {
	case StagePending:
		return StageQueriesReady
	case StageQueriesReady:
		return StageSearched
	case StageSearched:
		return StageExtracted
	case StageExtracted:
		return StageClassified
	case StageClassified:
		return StageDone
	default:
		return s
	}
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// ParseStage converts a string to a Stage, rejecting unknown values.
func ParseStage(v string) (Stage, error) {
	switch Stage(v) {
	case StagePending, StageQueriesReady, StageSearched, StageExtracted, StageClassified, StageDone, StageFailed:
		return Stage(v), nil
	default:
		return "", fmt.Errorf("unknown stage: %q", v)
	}
}
