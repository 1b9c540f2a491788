package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/extraction"
	"github.com/jonathan/renewable-watch/internal/llm"
)

// loadMergedConfig builds the effective configuration for one command:
// config file values first, then explicit CLI flag overrides, then defaults
// for whatever is still unset. applyFlags must only touch fields whose flag
// was explicitly set (cmd.Flags().Changed) so file values survive.
func loadMergedConfig(configPath string, applyFlags func(cfg *config.Config)) (config.Config, error) {
	var cfg config.Config

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	if applyFlags != nil {
		applyFlags(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.DefaultConfig())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Verbose && configPath != "" {
		fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", configPath)
	}

	return cfg, nil
}

// llmConfig applies the configured retry budget to the default model set.
func llmConfig(cfg *config.Config) *llm.Config {
	return llm.DefaultGeminiConfig().WithRetries(cfg.Retries, time.Second)
}

// extractionOptions maps the flat config onto the extractor's option struct.
func extractionOptions(cfg *config.Config) *extraction.Options {
	return &extraction.Options{
		FetchTimeout:    time.Duration(cfg.FetchTimeoutSecs) * time.Second,
		RequestDelay:    time.Duration(cfg.RequestDelaySecs) * time.Second,
		MaxContentChars: cfg.MaxContentChars,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		UseBrowser:      cfg.UseBrowser,
		Verbose:         cfg.Verbose,
	}
}
