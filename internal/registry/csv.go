package registry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/jonathan/renewable-watch/internal/types"
)

// BaseColumns is the fixed leading column set of the projects CSV. Detail
// columns follow, one per distinct detail key, sorted and prefixed with
// DetailColumnPrefix.
var BaseColumns = []string{
	"id", "name", "location", "latitude", "longitude", "technology",
	"capacity_dc", "capacity_ac", "agency", "status", "completion_date",
}

// DetailColumnPrefix marks CSV columns carried over from detail pages.
const DetailColumnPrefix = "detail_"

// WriteCSV writes records to path as the canonical projects dataset. The
// file is written to a temp file and renamed into place so readers never
// observe a partial dataset.
func WriteCSV(path string, records []types.ProjectRecord) error {
	detailKeys := collectDetailKeys(records)

	header := make([]string, 0, len(BaseColumns)+len(detailKeys))
	header = append(header, BaseColumns...)
	for _, key := range detailKeys {
		header = append(header, DetailColumnPrefix+key)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for i := range records {
		rows = append(rows, recordRow(&records[i], detailKeys))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".projects-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset file: %w", err)
	}
	tmpName := tmp.Name()

	writeErr := csv.NewWriter(tmp).WriteAll(rows)
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write dataset: %w", writeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return nil
}

// recordRow flattens one record into CSV cells ordered to match the header.
func recordRow(p *types.ProjectRecord, detailKeys []string) []string {
	row := make([]string, 0, len(BaseColumns)+len(detailKeys))
	row = append(row,
		strconv.Itoa(p.ID),
		p.Name,
		p.Location,
		formatCoordinate(p.Latitude),
		formatCoordinate(p.Longitude),
		p.Technology,
		p.CapacityDC,
		p.CapacityAC,
		p.Agency,
		p.Status,
		p.CompletionDate,
	)
	for _, key := range detailKeys {
		row = append(row, p.Details[key])
	}
	return row
}

// formatCoordinate renders a coordinate, or an empty cell when absent.
func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// collectDetailKeys returns the sorted union of detail keys across records.
func collectDetailKeys(records []types.ProjectRecord) []string {
	seen := make(map[string]bool)
	for i := range records {
		for key := range records[i].Details {
			seen[key] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
