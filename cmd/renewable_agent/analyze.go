package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/dataset"
	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/pipeline"
	"github.com/jonathan/renewable-watch/internal/search"
	"github.com/jonathan/renewable-watch/internal/types"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the opposition analysis pipeline over the dataset",
	Long: `Runs every project through the four analysis stages: query synthesis ->
web search -> content extraction -> opposition classification. Each stage
persists its artifact before the next starts, so an interrupted run resumes
from the last completed stage. Projects that already have a summary are
skipped unless --force is set.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runAnalyze,
}

var (
	analyzeConfigPath      string
	analyzeDataset         string
	analyzeDataDir         string
	analyzeIDs             []int
	analyzeForce           bool
	analyzeWorkers         int
	analyzeResultsPerQuery int
	analyzeAPIKey          string
	analyzeSearchKey       string
	analyzeSearchCX        string
	analyzeDatabaseURL     string
	analyzeUseBrowser      bool
	analyzeVerbose         bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	analyzeCmd.Flags().StringVarP(&analyzeDataset, "dataset", "d", "", "Path to the projects CSV written by scrape")
	analyzeCmd.Flags().StringVar(&analyzeDataDir, "data-dir", "", "Root directory for dataset and artifacts")
	analyzeCmd.Flags().IntSliceVar(&analyzeIDs, "ids", nil, "Project IDs to analyze (default: all projects in the dataset)")
	analyzeCmd.Flags().BoolVarP(&analyzeForce, "force", "f", false, "Re-analyze projects that already have a summary")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 0, "Number of projects to analyze concurrently")
	analyzeCmd.Flags().IntVar(&analyzeResultsPerQuery, "results-per-query", 0, "Search results requested per language (max 10)")
	analyzeCmd.Flags().BoolVar(&analyzeUseBrowser, "use-browser", false, "Use headless browser for JS-rendered pages (requires Chrome)")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed progress information")

	// Credentials can be passed as flags, or read from the environment
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCmd.Flags().StringVar(&analyzeSearchKey, "search-key", "", "Google Custom Search API key (optional, defaults to GOOGLE_SEARCH_API_KEY env var)")
	analyzeCmd.Flags().StringVar(&analyzeSearchCX, "search-cx", "", "Google Custom Search engine ID (optional, defaults to GOOGLE_SEARCH_ENGINE_ID env var)")

	// Database URL for the optional artifact mirror
	analyzeCmd.Flags().StringVar(&analyzeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(analyzeConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("dataset") {
			cfg.Dataset = analyzeDataset
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = analyzeDataDir
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = analyzeWorkers
		}
		if cmd.Flags().Changed("results-per-query") {
			cfg.ResultsPerQuery = analyzeResultsPerQuery
		}
		if cmd.Flags().Changed("api-key") {
			cfg.GeminiAPIKey = analyzeAPIKey
		}
		if cmd.Flags().Changed("search-key") {
			cfg.SearchAPIKey = analyzeSearchKey
		}
		if cmd.Flags().Changed("search-cx") {
			cfg.SearchEngineID = analyzeSearchCX
		}
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = analyzeDatabaseURL
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = analyzeUseBrowser
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = analyzeVerbose
		}
	})
	if err != nil {
		return err
	}

	projects, err := dataset.Load(cfg.DatasetPath())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Errorf("dataset %s contains no projects; run scrape first", cfg.DatasetPath())
	}

	if len(analyzeIDs) > 0 {
		projects, err = selectProjects(projects, analyzeIDs)
		if err != nil {
			return err
		}
	}

	cfg.ApplyEnv()
	if err := cfg.RequireAnalyzeCredentials(); err != nil {
		return err
	}

	store := artifacts.NewStore(cfg.ArtifactsDir())
	if err := store.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to prepare artifact directories: %w", err)
	}

	client, err := llm.NewClient(ctx, llmConfig(&cfg), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create language client: %w", err)
	}
	defer client.Close()

	searcher, err := search.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		return fmt.Errorf("failed to create search client: %w", err)
	}
	searcher.WithAttempts(cfg.Retries)

	result, err := pipeline.Run(ctx, pipeline.RunOptions{
		Projects:        projects,
		Store:           store,
		Client:          client,
		Searcher:        searcher,
		Extraction:      extractionOptions(&cfg),
		ResultsPerQuery: cfg.ResultsPerQuery,
		Workers:         cfg.Workers,
		Force:           analyzeForce,
		Verbose:         cfg.Verbose,
		DatabaseURL:     cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Run %s: %d done, %d skipped, %d failed (of %d)\n",
		result.RunID, result.Succeeded, result.Skipped, result.Failed, result.Projects)
	fmt.Fprintf(os.Stdout, "Artifacts: %s\n", store.Root())

	if result.Failed > 0 {
		return fmt.Errorf("%d project(s) failed; rerun analyze to resume them", result.Failed)
	}

	return nil
}

// selectProjects narrows the dataset to the requested IDs, failing on IDs the
// dataset does not contain so a typo never silently analyzes nothing.
func selectProjects(projects []types.ProjectRecord, ids []int) ([]types.ProjectRecord, error) {
	byID := make(map[int]types.ProjectRecord, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	selected := make([]types.ProjectRecord, 0, len(ids))
	var unknown []int
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, p)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown project ids: %v", unknown)
	}

	return selected, nil
}
