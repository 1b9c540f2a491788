// Package dataset loads the scraped projects CSV into ProjectRecords.
// Columns are resolved by header name so the loader accepts files written by
// any scraper version, including ones with extra or reordered columns.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/renewable-watch/internal/registry"
	"github.com/jonathan/renewable-watch/internal/types"
)

// Plausibility bounds for scraped coordinates. The registry covers
// Bangladesh only, so anything outside this box is a data entry error.
const (
	MinLatitude  = 20.0
	MaxLatitude  = 27.0
	MinLongitude = 88.0
	MaxLongitude = 93.0
)

// capacityNumberPattern pulls the leading number out of a capacity string.
var capacityNumberPattern = regexp.MustCompile(`\d+\.?\d*`)

// WithinBangladesh reports whether a coordinate pair is plausible for a
// project in the registry.
func WithinBangladesh(lat, lon float64) bool {
	return lat >= MinLatitude && lat <= MaxLatitude &&
		lon >= MinLongitude && lon <= MaxLongitude
}

// ParseCapacityMW converts a scraped capacity string to megawatts.
// "50 MW" and "30MWp" parse as-is; "1,200 kW" converts to 1.2. It reports
// ok=false when no number is present.
func ParseCapacityMW(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	match := capacityNumberPattern.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(strings.ToLower(cleaned), "kw") {
		value /= 1000
	}
	return value, true
}

// Load reads the projects CSV at path.
func Load(path string) ([]types.ProjectRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Message: "failed to open dataset", Cause: err}
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Read parses the projects CSV from r. Rows missing a usable id or name are
// logged and skipped rather than failing the whole load.
func Read(r io.Reader) ([]types.ProjectRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Message: "dataset is empty"}
		}
		return nil, &LoadError{Message: "failed to read dataset header", Cause: err}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns["id"]; !ok {
		return nil, &LoadError{Message: "dataset has no id column"}
	}
	if _, ok := columns["name"]; !ok {
		return nil, &LoadError{Message: "dataset has no name column"}
	}

	var records []types.ProjectRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Message: "failed to read dataset row", Cause: err}
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		id, err := strconv.Atoi(cell("id"))
		if err != nil {
			log.Printf("[dataset] row %d: missing or invalid project id, skipped", line)
			continue
		}
		name := cell("name")
		if name == "" {
			log.Printf("[dataset] row %d: missing project name, skipped", line)
			continue
		}

		record := types.ProjectRecord{
			ID:             id,
			Name:           name,
			Location:       cell("location"),
			Technology:     cell("technology"),
			CapacityDC:     cell("capacity_dc"),
			CapacityAC:     cell("capacity_ac"),
			Agency:         cell("agency"),
			Status:         cell("status"),
			CompletionDate: cell("completion_date"),
			Details:        detailFields(header, row),
		}

		if mw, ok := ParseCapacityMW(record.CapacityDC); ok {
			record.CapacityMW = mw
		} else if mw, ok := ParseCapacityMW(record.CapacityAC); ok {
			record.CapacityMW = mw
		}

		if lat, lon, ok := rowCoordinates(cell, record.Details); ok && WithinBangladesh(lat, lon) {
			record.Latitude = &lat
			record.Longitude = &lon
		}

		records = append(records, record)
	}

	return records, nil
}

// rowCoordinates reads the latitude/longitude columns, falling back to the
// combined detail field for files written by older scraper versions.
func rowCoordinates(cell func(string) string, details map[string]string) (float64, float64, bool) {
	latText, lonText := cell("latitude"), cell("longitude")
	if latText != "" && lonText != "" {
		lat, latErr := strconv.ParseFloat(latText, 64)
		lon, lonErr := strconv.ParseFloat(lonText, 64)
		if latErr == nil && lonErr == nil {
			return lat, lon, true
		}
	}

	return registry.CoordinatesFromDetails(details)
}

// detailFields collects the detail_* columns of a row into a map keyed by
// the bare detail name. Empty cells are omitted.
func detailFields(header []string, row []string) map[string]string {
	var details map[string]string
	for i, name := range header {
		key, found := strings.CutPrefix(strings.TrimSpace(name), registry.DetailColumnPrefix)
		if !found || key == "" || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		if details == nil {
			details = make(map[string]string)
		}
		details[key] = value
	}
	return details
}
