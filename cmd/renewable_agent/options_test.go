package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/llm"
)

func TestLLMConfig_AppliesRetryBudget(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retries = 5

	llmCfg := llmConfig(&cfg)

	assert.Equal(t, 5, llmCfg.MaxAttempts)
	assert.Equal(t, time.Second, llmCfg.RetryBase)
	// Model tiers come through unchanged
	assert.Equal(t, llm.DefaultGeminiConfig().GetModel(llm.TierLite), llmCfg.GetModel(llm.TierLite))
}

func TestLLMConfig_DefaultRetries(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, llm.DefaultGeminiConfig().MaxAttempts, llmConfig(&cfg).MaxAttempts)
}
