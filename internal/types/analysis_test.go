package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchResults_URLs_DeduplicatesAcrossSets(t *testing.T) {
	results := SearchResults{
		ProjectID: 12,
		Sets: []SearchResultSet{
			{
				ProjectID: 12,
				Language:  "en",
				Results: []SearchResult{
					{URL: "https://example.com/a"},
					{URL: "https://example.com/b"},
				},
			},
			{
				ProjectID: 12,
				Language:  "bn",
				Results: []SearchResult{
					{URL: "https://example.com/b"},
					{URL: "https://example.com/c"},
				},
			},
		},
	}

	urls := results.URLs()
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}, urls)
}

func TestSearchResults_URLs_SkipsEmpty(t *testing.T) {
	results := SearchResults{
		Sets: []SearchResultSet{
			{Results: []SearchResult{{URL: ""}, {URL: "https://example.com/a"}}},
		},
	}

	assert.Equal(t, []string{"https://example.com/a"}, results.URLs())
}

func TestSearchResults_URLs_EmptySets(t *testing.T) {
	results := SearchResults{ProjectID: 3}
	assert.Empty(t, results.URLs())
}

func TestContentSet_Texts_OnlySuccessfulItems(t *testing.T) {
	set := ContentSet{
		ProjectID: 7,
		Items: []ExtractedContent{
			{URL: "https://example.com/a", Status: ExtractionOK, NormalizedText: "first"},
			{URL: "https://example.com/b", Status: ExtractionFailed, Error: "timeout"},
			{URL: "https://example.com/c", Status: ExtractionEmpty},
			{URL: "https://example.com/d", Status: ExtractionOK, NormalizedText: "second"},
		},
	}

	assert.Equal(t, []string{"first", "second"}, set.Texts())
}
