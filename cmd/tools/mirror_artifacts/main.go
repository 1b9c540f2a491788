// Command mirror_artifacts backfills the PostgreSQL mirror from the file
// artifact store: every project in the dataset CSV and every persisted
// opposition summary is upserted.
//
// Useful after analyze runs executed without DATABASE_URL, or when pointing
// a fresh database at an existing data directory.
//
// Usage:
//
//	go run cmd/tools/mirror_artifacts/main.go [data-dir]
//
// Requires DATABASE_URL environment variable to be set.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/dataset"
	"github.com/jonathan/renewable-watch/internal/db"
)

func main() {
	dataDir := "data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "ERROR: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to ensure schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Artifact Mirror Backfill ===")
	fmt.Println()

	datasetPath := filepath.Join(dataDir, "renewable_energy_projects.csv")
	projects, err := dataset.Load(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load dataset %s: %v\n", datasetPath, err)
		os.Exit(1)
	}

	fmt.Printf("Mirroring %d projects from %s\n", len(projects), datasetPath)

	projectsSaved := 0
	projectsFailed := 0
	for i := range projects {
		p := &projects[i]
		if err := database.SaveProject(ctx, p); err != nil {
			fmt.Printf("  FAIL project %d (%s): %v\n", p.ID, p.Name, err)
			projectsFailed++
			continue
		}
		projectsSaved++
	}

	store := artifacts.NewStore(filepath.Join(dataDir, "artifacts"))
	ids, err := store.ListSummaryIDs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to list summaries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mirroring %d summaries from %s\n", len(ids), store.Root())

	summariesSaved := 0
	summariesFailed := 0
	for _, id := range ids {
		summary, err := store.LoadSummary(id)
		if err != nil || summary == nil {
			fmt.Printf("  FAIL summary %d: %v\n", id, err)
			summariesFailed++
			continue
		}
		if err := database.SaveSummary(ctx, summary); err != nil {
			fmt.Printf("  FAIL summary %d: %v\n", id, err)
			summariesFailed++
			continue
		}
		summariesSaved++
	}

	fmt.Println()
	fmt.Println("=== Backfill Summary ===")
	fmt.Printf("  Projects: %d mirrored, %d failed\n", projectsSaved, projectsFailed)
	fmt.Printf("  Summaries: %d mirrored, %d failed\n", summariesSaved, summariesFailed)

	total, withOpposition, err := database.CountSummaries(ctx)
	if err == nil {
		fmt.Printf("  Database now holds %d summaries (%d with opposition)\n", total, withOpposition)
	}

	if projectsFailed > 0 || summariesFailed > 0 {
		os.Exit(1)
	}
}
