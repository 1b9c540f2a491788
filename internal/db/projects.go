package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/renewable-watch/internal/types"
)

// SaveProject inserts or updates one registry project
func (db *DB) SaveProject(ctx context.Context, p *types.ProjectRecord) error {
	detailsJSON, err := json.Marshal(p.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal project details: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO projects (project_id, name, location, latitude, longitude, technology,
		                       capacity_dc, capacity_ac, capacity_mw, agency, status, completion_date, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (project_id) DO UPDATE SET
		     name = $2,
		     location = $3,
		     latitude = $4,
		     longitude = $5,
		     technology = $6,
		     capacity_dc = $7,
		     capacity_ac = $8,
		     capacity_mw = $9,
		     agency = $10,
		     status = $11,
		     completion_date = $12,
		     details = $13,
		     updated_at = NOW()`,
		p.ID, p.Name, p.Location, p.Latitude, p.Longitude, p.Technology,
		p.CapacityDC, p.CapacityAC, p.CapacityMW, p.Agency, p.Status, p.CompletionDate, detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save project %d: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a mirrored project by its registry ID
func (db *DB) GetProject(ctx context.Context, projectID int) (*types.ProjectRecord, error) {
	var p types.ProjectRecord
	var detailsJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT project_id, name, location, latitude, longitude, technology,
		        capacity_dc, capacity_ac, capacity_mw, agency, status, completion_date, details
		 FROM projects WHERE project_id = $1`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.Location, &p.Latitude, &p.Longitude, &p.Technology,
		&p.CapacityDC, &p.CapacityAC, &p.CapacityMW, &p.Agency, &p.Status, &p.CompletionDate, &detailsJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project %d: %w", projectID, err)
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &p.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project details: %w", err)
		}
	}
	return &p, nil
}

// CountProjects returns the number of mirrored projects
func (db *DB) CountProjects(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}
