package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/dataset"
	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/search"
	"github.com/jonathan/renewable-watch/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Start an HTTP server that exposes the project dataset and opposition
summaries as JSON endpoints. When analysis credentials are configured the
server also mounts POST /analyze for triggering pipeline runs.`,
	RunE: runServe,
}

var (
	serveConfigPath string
	servePort       int
	serveDataset    string
	serveDataDir    string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveDataset, "dataset", "d", "", "Path to the projects CSV written by scrape")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Root directory for dataset and artifacts")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(serveConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("dataset") {
			cfg.Dataset = serveDataset
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = serveDataDir
		}
	})
	if err != nil {
		return err
	}

	projects, err := dataset.Load(cfg.DatasetPath())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	store := artifacts.NewStore(cfg.ArtifactsDir())
	if err := store.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to prepare artifact directories: %w", err)
	}

	serverCfg := server.Config{
		Port:     cfg.Port,
		Projects: projects,
		Store:    store,
	}

	// The analyze endpoints need pipeline credentials; without them the
	// server still serves the dataset and existing summaries read-only.
	cfg.ApplyEnv()
	if credErr := cfg.RequireAnalyzeCredentials(); credErr != nil {
		log.Printf("Analyze endpoints disabled: %v", credErr)
	} else {
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

		serverCfg.Analyze = &server.AnalyzeConfig{
			Client:          client,
			Searcher:        searcher,
			Extraction:      extractionOptions(&cfg),
			ResultsPerQuery: cfg.ResultsPerQuery,
			Workers:         cfg.Workers,
			DatabaseURL:     cfg.DatabaseURL,
		}
		log.Printf("Analyze endpoints enabled")
	}

	srv, err := server.New(serverCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
