// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	DataDir string `json:"data_dir,omitempty"` // Root directory for dataset and artifacts
	Dataset string `json:"dataset,omitempty"`  // Path to the projects CSV (defaults under DataDir)

	// Registry scraping
	RegistryBaseURL string `json:"registry_base_url,omitempty" validate:"omitempty,url"` // Registry site base URL
	RegistryPages   int    `json:"registry_pages,omitempty" validate:"gte=0"`            // Number of paginated list pages

	// Analysis pipeline
	ResultsPerQuery  int   `json:"results_per_query,omitempty" validate:"gte=0,lte=10"` // Search results requested per language
	FetchTimeoutSecs int   `json:"fetch_timeout_seconds,omitempty" validate:"gte=0"`    // Per-URL fetch timeout
	RequestDelaySecs int   `json:"request_delay_seconds,omitempty" validate:"gte=0"`    // Polite delay between fetches
	MaxContentChars  int   `json:"max_content_chars,omitempty" validate:"gte=0"`        // Per-page text cap fed to the classifier
	MaxBodyBytes     int64 `json:"max_body_bytes,omitempty" validate:"gte=0"`           // Per-URL response body cap
	Retries          int   `json:"retries,omitempty" validate:"gte=0,lte=5"`            // Attempts for transient service failures
	Workers          int   `json:"workers,omitempty" validate:"gte=0,lte=32"`           // Cross-project worker pool size

	// Credentials
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`   // Language service key
	SearchAPIKey   string `json:"search_api_key,omitempty"`   // Google Custom Search key
	SearchEngineID string `json:"search_engine_id,omitempty"` // Google Custom Search engine ID (cx)
	DatabaseURL    string `json:"database_url,omitempty"`     // Optional PostgreSQL mirror

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Headless browser for JS-rendered pages
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed progress information
	Port       int  `json:"port,omitempty" validate:"gte=0,lte=65535"`
}

// DefaultConfig returns the baseline values used when neither config file nor flags set a field.
func DefaultConfig() Config {
	return Config{
		DataDir:          "data",
		RegistryBaseURL:  "https://www.renewableenergy.gov.bd",
		RegistryPages:    3,
		ResultsPerQuery:  10,
		FetchTimeoutSecs: 20,
		RequestDelaySecs: 2,
		MaxContentChars:  15000,
		MaxBodyBytes:     2 << 20,
		Retries:          2,
		Workers:          1,
		Port:             8080,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// validate is shared across Validate calls; validator instances cache struct metadata.
var validate = validator.New()

// Validate checks that the configuration has valid values.
// Credential presence is checked separately (RequireAnalyzeCredentials) because
// scrape/export/serve work without API keys.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConfigurationError{Message: "invalid configuration", Cause: err}
	}
	return nil
}

// RequireAnalyzeCredentials fails fast when the keys the analysis pipeline
// needs are missing, so a run never dies opaquely mid-pipeline.
func (c *Config) RequireAnalyzeCredentials() error {
	if c.GeminiAPIKey == "" {
		return &ConfigurationError{Message: "GEMINI_API_KEY is required (env, --api-key, or config file)"}
	}
	if c.SearchAPIKey == "" {
		return &ConfigurationError{Message: "GOOGLE_SEARCH_API_KEY is required (env, --search-key, or config file)"}
	}
	if c.SearchEngineID == "" {
		return &ConfigurationError{Message: "GOOGLE_SEARCH_ENGINE_ID is required (env, --search-cx, or config file)"}
	}
	return nil
}

// ApplyEnv fills unset credential fields from the process environment.
func (c *Config) ApplyEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.SearchAPIKey == "" {
		c.SearchAPIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if c.SearchEngineID == "" {
		c.SearchEngineID = os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.Dataset == "" {
		result.Dataset = defaults.Dataset
	}
	if result.RegistryBaseURL == "" {
		result.RegistryBaseURL = defaults.RegistryBaseURL
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchEngineID == "" {
		result.SearchEngineID = defaults.SearchEngineID
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.RegistryPages == 0 {
		result.RegistryPages = defaults.RegistryPages
	}
	if result.ResultsPerQuery == 0 {
		result.ResultsPerQuery = defaults.ResultsPerQuery
	}
	if result.FetchTimeoutSecs == 0 {
		result.FetchTimeoutSecs = defaults.FetchTimeoutSecs
	}
	if result.RequestDelaySecs == 0 {
		result.RequestDelaySecs = defaults.RequestDelaySecs
	}
	if result.MaxContentChars == 0 {
		result.MaxContentChars = defaults.MaxContentChars
	}
	if result.MaxBodyBytes == 0 {
		result.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if result.Retries == 0 {
		result.Retries = defaults.Retries
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// DatasetPath returns the configured CSV path, defaulting under DataDir.
func (c *Config) DatasetPath() string {
	if c.Dataset != "" {
		return c.Dataset
	}
	return filepath.Join(c.DataDir, "renewable_energy_projects.csv")
}

// ArtifactsDir returns the root directory for per-project pipeline artifacts.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.DataDir, "artifacts")
}
