// Package types provides type definitions for structured data used throughout the renewable-watch system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// QueryOrigin records whether a query set came from the language service or the deterministic template.
type QueryOrigin string

const (
	// OriginGenerated marks queries authored by the language service
	OriginGenerated QueryOrigin = "generated"
	// OriginFallback marks queries built from the deterministic template after a generation failure
	OriginFallback QueryOrigin = "fallback"
)

// SearchQuerySet holds the two search queries synthesized for one project.
// Created once per project and never mutated.
type SearchQuerySet struct {
	ProjectID      int         `json:"project_id"`
	EnglishQuery   string      `json:"english_query"`
	LocalizedQuery string      `json:"localized_query"` // Bangla
	Origin         QueryOrigin `json:"origin"`
	GeneratedAt    time.Time   `json:"generated_at"`
}

// SearchResult is a single ranked result from the search service.
// Ordering follows the upstream relevance ranking; no re-ranking is performed.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResultSet holds the ordered results of one query in one language.
type SearchResultSet struct {
	ProjectID int            `json:"project_id"`
	Language  string         `json:"language"` // "en" or "bn"
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
}

// SearchResults is the persisted search artifact for one project: one set per language.
type SearchResults struct {
	ProjectID int               `json:"project_id"`
	Sets      []SearchResultSet `json:"sets"`
}

// URLs returns every result URL across all sets, deduplicated, first-seen order preserved.
func (s *SearchResults) URLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, set := range s.Sets {
		for _, r := range set.Results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// ExtractionStatus describes the outcome of extracting one URL.
type ExtractionStatus string

const (
	// ExtractionOK means the page yielded usable text
	ExtractionOK ExtractionStatus = "ok"
	// ExtractionFailed means the fetch or parse failed
	ExtractionFailed ExtractionStatus = "failed"
	// ExtractionEmpty means the page fetched but produced no usable text
	ExtractionEmpty ExtractionStatus = "empty"
)

// ExtractedContent holds the normalized text (or failure record) for one URL.
// Failures are recorded, not dropped silently.
type ExtractedContent struct {
	ProjectID      int              `json:"project_id"`
	URL            string           `json:"url"`
	NormalizedText string           `json:"normalized_text,omitempty"`
	Status         ExtractionStatus `json:"status"`
	Error          string           `json:"error,omitempty"`
}

// ContentSet is the persisted extraction artifact for one project.
type ContentSet struct {
	ProjectID int                `json:"project_id"`
	Items     []ExtractedContent `json:"items"`
}

// Texts returns the normalized texts of successfully extracted items, in extraction order.
func (c *ContentSet) Texts() []string {
	var texts []string
	for _, item := range c.Items {
		if item.Status == ExtractionOK && item.NormalizedText != "" {
			texts = append(texts, item.NormalizedText)
		}
	}
	return texts
}

// SupportingSource is one cited source with the excerpt that supports the verdict.
type SupportingSource struct {
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
}

// OppositionSummary is the terminal artifact for one project, the only artifact
// the dashboard reads besides the base dataset. Overwritten on reprocessing.
type OppositionSummary struct {
	ProjectID         int                `json:"project_id"`
	OppositionPresent bool               `json:"opposition_present"`
	Confidence        float64            `json:"confidence"` // always in [0,1]
	Rationale         string             `json:"rationale"`
	OppositionTypes   []string           `json:"opposition_types,omitempty"`
	SupportingSources []SupportingSource `json:"supporting_sources"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
