package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/renewable-watch/internal/registry"
	"github.com/jonathan/renewable-watch/internal/types"
)

// getBinaryPath returns the path to the renewable_agent binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "renewable_agent"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/%s ./cmd/%s'", binaryPath, binaryName, binaryName)
	}

	return binaryPath
}

func float64Ptr(v float64) *float64 { return &v }

// writeDatasetCSV writes a three-project dataset into dir and returns its path.
// Two projects carry coordinates; project 102 has none.
func writeDatasetCSV(t *testing.T, dir string) string {
	t.Helper()

	records := []types.ProjectRecord{
		{
			ID:             101,
			Name:           "Teknaf Solar Park",
			Location:       "Teknaf, Cox's Bazar",
			Latitude:       float64Ptr(20.8579),
			Longitude:      float64Ptr(92.3079),
			Technology:     "Solar Park",
			CapacityDC:     "28 MWp",
			CapacityAC:     "20 MW",
			Agency:         "BPDB",
			Status:         "Implemented",
			CompletionDate: "2018",
			Details:        map[string]string{"SID": "S-101"},
		},
		{
			ID:             102,
			Name:           "Sarishabari Solar Plant",
			Location:       "Jamalpur",
			Technology:     "Solar Park",
			CapacityDC:     "3 MW",
			Agency:         "PGCB",
			Status:         "Under Construction",
			CompletionDate: "2020",
		},
		{
			ID:             201,
			Name:           "Mongla Wind Power Plant",
			Location:       "Mongla, Bagerhat",
			Latitude:       float64Ptr(22.4716),
			Longitude:      float64Ptr(89.5911),
			Technology:     "Wind",
			CapacityDC:     "55 MW",
			Agency:         "BPDB",
			Status:         "Under Construction",
			CompletionDate: "2023",
		},
	}

	path := filepath.Join(dir, "projects.csv")
	if err := registry.WriteCSV(path, records); err != nil {
		t.Fatalf("failed to write dataset fixture: %v", err)
	}
	return path
}
