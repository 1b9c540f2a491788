package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/registry"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the project registry into a CSV dataset",
	Long: `Fetches the paginated project list and every project detail page from the
national renewable energy registry and writes the assembled records to CSV.

Individual page failures are logged and skipped; the scrape only fails when
no project rows could be collected at all.`,
	RunE: runScrape,
}

var (
	scrapeConfigPath string
	scrapeOut        string
	scrapeBaseURL    string
	scrapePages      int
	scrapeDelay      int
	scrapeTimeout    int
	scrapeUseBrowser bool
	scrapeVerbose    bool
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "Path to output CSV (defaults under the data directory)")
	scrapeCmd.Flags().StringVar(&scrapeBaseURL, "base-url", "", "Registry base URL")
	scrapeCmd.Flags().IntVar(&scrapePages, "pages", 0, "Number of paginated list pages to fetch")
	scrapeCmd.Flags().IntVar(&scrapeDelay, "delay", 0, "Polite delay between page fetches in seconds")
	scrapeCmd.Flags().IntVar(&scrapeTimeout, "timeout", 0, "Per-page fetch timeout in seconds")
	scrapeCmd.Flags().BoolVar(&scrapeUseBrowser, "use-browser", false, "Use headless browser for JS-rendered pages (requires Chrome)")
	scrapeCmd.Flags().BoolVarP(&scrapeVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(scrapeConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("out") {
			cfg.Dataset = scrapeOut
		}
		if cmd.Flags().Changed("base-url") {
			cfg.RegistryBaseURL = scrapeBaseURL
		}
		if cmd.Flags().Changed("pages") {
			cfg.RegistryPages = scrapePages
		}
		if cmd.Flags().Changed("delay") {
			cfg.RequestDelaySecs = scrapeDelay
		}
		if cmd.Flags().Changed("timeout") {
			cfg.FetchTimeoutSecs = scrapeTimeout
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = scrapeUseBrowser
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = scrapeVerbose
		}
	})
	if err != nil {
		return err
	}

	opts := &registry.Options{
		BaseURL:      cfg.RegistryBaseURL,
		Pages:        cfg.RegistryPages,
		FetchTimeout: time.Duration(cfg.FetchTimeoutSecs) * time.Second,
		RequestDelay: time.Duration(cfg.RequestDelaySecs) * time.Second,
		UseBrowser:   cfg.UseBrowser,
		Verbose:      cfg.Verbose,
	}
	// --delay 0 means no delay, not the default
	if cmd.Flags().Changed("delay") && scrapeDelay == 0 {
		opts.RequestDelay = 0
	}

	records, err := registry.Scrape(ctx, opts)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	datasetPath := cfg.DatasetPath()
	if err := registry.WriteCSV(datasetPath, records); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Scraped %d projects\n", len(records))
	fmt.Fprintf(os.Stdout, "Dataset: %s\n", datasetPath)

	return nil
}
