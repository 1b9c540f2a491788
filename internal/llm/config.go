// Package llm provides centralized LLM configuration and client abstractions.
// Callers pick a model tier rather than a model name, so tier-to-model
// mapping changes in one place.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: query synthesis, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: classification over large corpora
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning tasks
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one implemented.
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	// MaxAttempts bounds calls per request; retries apply to transient
	// failures (429, 5xx, network timeouts) only.
	MaxAttempts int
	// RetryBase is the first retry delay, doubled each further attempt.
	RetryBase time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		MaxAttempts: 2,
		RetryBase:   time.Second,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string),
		MaxAttempts: c.MaxAttempts,
		RetryBase:   c.RetryBase,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithRetries returns a new Config with the given retry budget.
func (c *Config) WithRetries(maxAttempts int, base time.Duration) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string),
		MaxAttempts: maxAttempts,
		RetryBase:   base,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
