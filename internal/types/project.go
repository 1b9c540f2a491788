// Package types provides type definitions for structured data used throughout the renewable-watch system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// ProjectRecord represents one row of the scraped registry dataset.
// Records are immutable once loaded; the pipeline and server consume them read-only.
type ProjectRecord struct {
	ID             int               `json:"id" validate:"gte=0"`
	Name           string            `json:"name" validate:"required"`
	Location       string            `json:"location"`
	Latitude       *float64          `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64          `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Technology     string            `json:"technology"`
	CapacityDC     string            `json:"capacity_dc"`
	CapacityAC     string            `json:"capacity_ac"`
	CapacityMW     float64           `json:"capacity_mw,omitempty"` // parsed from CapacityDC, falling back to CapacityAC
	Agency         string            `json:"agency"`
	Status         string            `json:"status"`
	CompletionDate string            `json:"completion_date"`
	Details        map[string]string `json:"details,omitempty"` // detail-page fields, keyed by normalized label
}

// HasCoordinates reports whether both latitude and longitude are present.
func (p *ProjectRecord) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Describe returns a compact one-line description used as LLM context.
func (p *ProjectRecord) Describe() string {
	parts := []string{p.Name}
	if p.Location != "" {
		parts = append(parts, fmt.Sprintf("located in %s", p.Location))
	}
	if p.Technology != "" {
		parts = append(parts, p.Technology)
	}
	if p.CapacityDC != "" {
		parts = append(parts, fmt.Sprintf("capacity %s", p.CapacityDC))
	} else if p.CapacityAC != "" {
		parts = append(parts, fmt.Sprintf("capacity %s", p.CapacityAC))
	}
	if p.Agency != "" {
		parts = append(parts, fmt.Sprintf("agency %s", p.Agency))
	}
	return strings.Join(parts, ", ")
}
