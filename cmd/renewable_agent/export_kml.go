package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/dataset"
	"github.com/jonathan/renewable-watch/internal/rendering"
	"github.com/spf13/cobra"
)

var exportKMLCmd = &cobra.Command{
	Use:   "export-kml",
	Short: "Export projects with coordinates as a KML document",
	Long: `Reads the dataset and writes one KML Placemark per project that has
plausible coordinates. The output opens directly in Google Earth.`,
	RunE: runExportKML,
}

var (
	exportKMLConfigPath string
	exportKMLDataset    string
	exportKMLDataDir    string
	exportKMLOut        string
)

func init() {
	exportKMLCmd.Flags().StringVar(&exportKMLConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	exportKMLCmd.Flags().StringVarP(&exportKMLDataset, "dataset", "d", "", "Path to the projects CSV written by scrape")
	exportKMLCmd.Flags().StringVar(&exportKMLDataDir, "data-dir", "", "Root directory for dataset and artifacts")
	exportKMLCmd.Flags().StringVarP(&exportKMLOut, "out", "o", "", "Path to output KML file (defaults under the data directory)")

	rootCmd.AddCommand(exportKMLCmd)
}

func runExportKML(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(exportKMLConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("dataset") {
			cfg.Dataset = exportKMLDataset
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = exportKMLDataDir
		}
	})
	if err != nil {
		return err
	}

	projects, err := dataset.Load(cfg.DatasetPath())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	outPath := exportKMLOut
	if outPath == "" {
		outPath = filepath.Join(cfg.DataDir, "renewable_energy_projects.kml")
	}

	if err := rendering.WriteKML(outPath, projects); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}

	placed := 0
	for i := range projects {
		if projects[i].HasCoordinates() {
			placed++
		}
	}

	fmt.Fprintf(os.Stdout, "Exported %d of %d projects with coordinates\n", placed, len(projects))
	fmt.Fprintf(os.Stdout, "KML: %s\n", outPath)

	return nil
}
