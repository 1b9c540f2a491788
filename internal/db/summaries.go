package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/renewable-watch/internal/types"
)

// SaveSummary inserts or updates the opposition summary for one project.
// Reprocessing a project overwrites the previous row.
func (db *DB) SaveSummary(ctx context.Context, s *types.OppositionSummary) error {
	sourcesJSON, err := json.Marshal(s.SupportingSources)
	if err != nil {
		return fmt.Errorf("failed to marshal supporting sources: %w", err)
	}

	oppositionTypes := s.OppositionTypes
	if oppositionTypes == nil {
		oppositionTypes = []string{}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO opposition_summaries (project_id, opposition_present, confidence, rationale,
		                                   opposition_types, supporting_sources, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id) DO UPDATE SET
		     opposition_present = $2,
		     confidence = $3,
		     rationale = $4,
		     opposition_types = $5,
		     supporting_sources = $6,
		     generated_at = $7,
		     updated_at = NOW()`,
		s.ProjectID, s.OppositionPresent, s.Confidence, s.Rationale,
		oppositionTypes, sourcesJSON, s.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary %d: %w", s.ProjectID, err)
	}
	return nil
}

// GetSummary retrieves the mirrored summary for one project
func (db *DB) GetSummary(ctx context.Context, projectID int) (*types.OppositionSummary, error) {
	var s types.OppositionSummary
	var sourcesJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT project_id, opposition_present, confidence, rationale,
		        opposition_types, supporting_sources, generated_at
		 FROM opposition_summaries WHERE project_id = $1`,
		projectID,
	).Scan(&s.ProjectID, &s.OppositionPresent, &s.Confidence, &s.Rationale,
		&s.OppositionTypes, &sourcesJSON, &s.GeneratedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary %d: %w", projectID, err)
	}

	if err := json.Unmarshal(sourcesJSON, &s.SupportingSources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal supporting sources: %w", err)
	}
	if s.SupportingSources == nil {
		s.SupportingSources = []types.SupportingSource{}
	}
	return &s, nil
}

// CountSummaries returns the number of mirrored summaries, split by verdict
func (db *DB) CountSummaries(ctx context.Context) (total, withOpposition int, err error) {
	err = db.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE opposition_present) FROM opposition_summaries`,
	).Scan(&total, &withOpposition)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return total, withOpposition, nil
}
