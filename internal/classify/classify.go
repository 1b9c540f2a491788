// Package classify renders the opposition verdict for one project from its
// extracted corpus.
package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/renewable-watch/internal/extraction"
	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/prompts"
	"github.com/jonathan/renewable-watch/internal/types"
)

// EmptyCorpusRationale is the rationale recorded when no page text survived
// extraction and the LLM is never consulted.
const EmptyCorpusRationale = "No content could be extracted from search results to analyze."

// verdictResponse is the JSON shape the LLM is asked to produce.
type verdictResponse struct {
	OppositionPresent bool                     `json:"opposition_present"`
	Confidence        float64                  `json:"confidence"`
	Rationale         string                   `json:"rationale"`
	OppositionTypes   []string                 `json:"opposition_types"`
	SupportingSources []types.SupportingSource `json:"supporting_sources"`
}

// Classify produces the opposition summary for a project from its content set.
// An empty corpus short-circuits to a negative verdict with zero confidence.
func Classify(ctx context.Context, project *types.ProjectRecord, set *types.ContentSet, client llm.Client) (*types.OppositionSummary, error) {
	if project == nil {
		return nil, &ClassificationError{Message: "project is required"}
	}

	corpus := extraction.BuildCorpus(set)
	if strings.TrimSpace(corpus) == "" {
		return &types.OppositionSummary{
			ProjectID:         project.ID,
			OppositionPresent: false,
			Confidence:        0,
			Rationale:         EmptyCorpusRationale,
			SupportingSources: []types.SupportingSource{},
			GeneratedAt:       time.Now().UTC(),
		}, nil
	}

	prompt := buildClassificationPrompt(project, corpus)

	// TierStandard: the verdict weighs evidence across several articles
	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ClassificationError{
			Message: "failed to generate content from LLM",
			Cause:   err,
		}
	}

	verdict, err := parseVerdictResponse(responseText)
	if err != nil {
		return nil, err
	}

	summary := &types.OppositionSummary{
		ProjectID:         project.ID,
		OppositionPresent: verdict.OppositionPresent,
		Confidence:        clampConfidence(verdict.Confidence),
		Rationale:         verdict.Rationale,
		OppositionTypes:   normalizeTypes(verdict.OppositionTypes),
		SupportingSources: filterSources(verdict.SupportingSources, set),
		GeneratedAt:       time.Now().UTC(),
	}

	return summary, nil
}

// buildClassificationPrompt constructs the prompt for the opposition verdict
func buildClassificationPrompt(project *types.ProjectRecord, corpus string) string {
	template := prompts.MustGet("classification.json", "classify")
	return prompts.Format(template, map[string]string{
		"Project": project.Describe(),
		"Corpus":  corpus,
	})
}

// parseVerdictResponse parses the JSON response into a verdictResponse
func parseVerdictResponse(responseText string) (*verdictResponse, error) {
	responseText = llm.CleanJSONBlock(responseText)

	var verdict verdictResponse
	if err := json.Unmarshal([]byte(responseText), &verdict); err != nil {
		return nil, &ClassificationError{
			Message: "failed to parse JSON response",
			Cause:   err,
		}
	}

	verdict.Rationale = strings.TrimSpace(verdict.Rationale)
	if verdict.Rationale == "" {
		return nil, &ClassificationError{Message: "response missing rationale"}
	}

	return &verdict, nil
}

// clampConfidence forces the confidence into [0, 1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// normalizeTypes lowercases, trims and dedupes opposition categories,
// preserving the model's order.
func normalizeTypes(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// filterSources keeps only citations whose URL actually appears in the
// content set. The model is told to cite corpus sources; anything else is
// hallucinated and dropped. The result is never nil.
func filterSources(raw []types.SupportingSource, set *types.ContentSet) []types.SupportingSource {
	known := make(map[string]bool)
	if set != nil {
		for _, item := range set.Items {
			if item.Status == types.ExtractionOK {
				known[item.URL] = true
			}
		}
	}

	out := make([]types.SupportingSource, 0, len(raw))
	for _, s := range raw {
		if s.URL == "" || !known[s.URL] {
			continue
		}
		out = append(out, s)
	}
	return out
}
