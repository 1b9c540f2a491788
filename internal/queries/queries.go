// Package queries synthesizes opposition-focused web search queries for a
// renewable energy project, one in English and one in Bangla.
package queries

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/prompts"
	"github.com/jonathan/renewable-watch/internal/types"
)

// queryResponse is the JSON shape the LLM is asked to produce.
type queryResponse struct {
	EnglishQuery string `json:"english_query"`
	BanglaQuery  string `json:"bangla_query"`
}

// Synthesize generates a bilingual query set for the project using the LLM.
func Synthesize(ctx context.Context, project *types.ProjectRecord, client llm.Client) (*types.SearchQuerySet, error) {
	if project == nil {
		return nil, &GenerationError{Message: "project is required"}
	}

	prompt := buildSynthesisPrompt(project)

	// TierLite is enough for short query formulation
	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, &GenerationError{
			Message: "failed to generate content from LLM",
			Cause:   err,
		}
	}

	parsed, err := parseQueryResponse(responseText)
	if err != nil {
		return nil, err
	}

	return &types.SearchQuerySet{
		ProjectID:      project.ID,
		EnglishQuery:   parsed.EnglishQuery,
		LocalizedQuery: parsed.BanglaQuery,
		Origin:         types.OriginGenerated,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

// Fallback builds a deterministic query set from the project record alone.
// Used when LLM synthesis fails so the pipeline can still proceed.
func Fallback(project *types.ProjectRecord) *types.SearchQuerySet {
	name := strings.TrimSpace(project.Name)

	englishParts := []string{quote(name)}
	banglaParts := []string{quote(name)}
	if loc := strings.TrimSpace(project.Location); loc != "" {
		englishParts = append(englishParts, loc)
		banglaParts = append(banglaParts, loc)
	}
	englishParts = append(englishParts, "Bangladesh land acquisition protest opposition")
	banglaParts = append(banglaParts, "ভূমি অধিগ্রহণ প্রতিবাদ বিরোধিতা")

	return &types.SearchQuerySet{
		ProjectID:      project.ID,
		EnglishQuery:   strings.Join(englishParts, " "),
		LocalizedQuery: strings.Join(banglaParts, " "),
		Origin:         types.OriginFallback,
		GeneratedAt:    time.Now().UTC(),
	}
}

// quote wraps a phrase in double quotes for exact-match searching.
func quote(s string) string {
	if s == "" {
		return s
	}
	return `"` + s + `"`
}

// buildSynthesisPrompt constructs the prompt for query synthesis
func buildSynthesisPrompt(project *types.ProjectRecord) string {
	template := prompts.MustGet("queries.json", "synthesize")
	return prompts.Format(template, map[string]string{
		"Project": project.Describe(),
	})
}

// parseQueryResponse parses the JSON response into a queryResponse
func parseQueryResponse(responseText string) (*queryResponse, error) {
	// Clean markdown code blocks if present using shared utility
	responseText = llm.CleanJSONBlock(responseText)

	var parsed queryResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, &GenerationError{
			Message: "failed to parse JSON response",
			Cause:   err,
		}
	}

	parsed.EnglishQuery = strings.TrimSpace(parsed.EnglishQuery)
	parsed.BanglaQuery = strings.TrimSpace(parsed.BanglaQuery)

	if parsed.EnglishQuery == "" {
		return nil, &GenerationError{Message: "response missing english_query"}
	}
	if parsed.BanglaQuery == "" {
		return nil, &GenerationError{Message: "response missing bangla_query"}
	}

	return &parsed, nil
}
