// Package main implements the renewable_agent CLI for the Bangladesh
// renewable energy project registry and its opposition analysis pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "renewable_agent",
	Short: "Renewable energy project registry scraper and opposition analysis pipeline",
	Long: `renewable_agent maintains a dataset of renewable energy projects scraped from
the Bangladesh national registry and enriches it with AI web-search analysis
of public opposition per project.

Typical flow: scrape -> analyze -> status/serve. The scraped CSV is the base
dataset; analyze writes per-project JSON artifacts next to it.`,
}

func main() {
	// Load .env file if present (API keys, database URL)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
