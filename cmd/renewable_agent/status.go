package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/dataset"
	"github.com/jonathan/renewable-watch/internal/types"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the analysis stage of every project in the dataset",
	Long: `Reads the dataset and the artifact store and prints one line per project
with its current pipeline stage, followed by stage totals and the outcome of
the most recent analyze run.`,
	RunE: runStatus,
}

var (
	statusConfigPath string
	statusDataset    string
	statusDataDir    string
	statusStage      string
)

func init() {
	statusCmd.Flags().StringVar(&statusConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	statusCmd.Flags().StringVarP(&statusDataset, "dataset", "d", "", "Path to the projects CSV written by scrape")
	statusCmd.Flags().StringVar(&statusDataDir, "data-dir", "", "Root directory for dataset and artifacts")
	statusCmd.Flags().StringVar(&statusStage, "stage", "", "Only show projects in this stage (pending, queries_ready, searched, extracted, done, failed)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(statusConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("dataset") {
			cfg.Dataset = statusDataset
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = statusDataDir
		}
	})
	if err != nil {
		return err
	}

	var only types.Stage
	if statusStage != "" {
		only, err = types.ParseStage(statusStage)
		if err != nil {
			return err
		}
	}

	projects, err := dataset.Load(cfg.DatasetPath())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	store := artifacts.NewStore(cfg.ArtifactsDir())

	counts := make(map[types.Stage]int)
	shown := 0
	for i := range projects {
		p := &projects[i]
		stage := store.StageFor(p.ID)
		counts[stage]++
		if only != "" && stage != only {
			continue
		}
		fmt.Fprintf(os.Stdout, "%-7d %-14s %s\n", p.ID, stage, p.Name)
		shown++
	}
	if only != "" && shown == 0 {
		fmt.Fprintf(os.Stdout, "No projects in stage %s\n", only)
	}

	fmt.Fprintf(os.Stdout, "\n%d projects:", len(projects))
	for _, stage := range []types.Stage{
		types.StagePending,
		types.StageQueriesReady,
		types.StageSearched,
		types.StageExtracted,
		types.StageDone,
		types.StageFailed,
	} {
		if counts[stage] > 0 {
			fmt.Fprintf(os.Stdout, " %d %s", counts[stage], stage)
		}
	}
	fmt.Fprintln(os.Stdout)

	latest, err := store.LatestRun()
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	if latest != nil {
		fmt.Fprintf(os.Stdout, "Last run %s (%s): %d done, %d skipped, %d failed\n",
			latest.RunID, latest.StartedAt.Format(time.RFC3339),
			latest.Succeeded, latest.Skipped, latest.Failed)
	}

	return nil
}
