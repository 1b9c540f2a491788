// Package search runs opposition queries against Google Programmable Search
// and collects ranked results per language.
package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jonathan/renewable-watch/internal/types"
)

const (
	// LanguageEnglish restricts results to English pages
	LanguageEnglish = "en"
	// LanguageBangla restricts results to Bangla pages
	LanguageBangla = "bn"

	// maxResultsPerQuery is the hard cap of the Custom Search API
	maxResultsPerQuery = 10
)

// Searcher executes one search query in one language.
type Searcher interface {
	Search(ctx context.Context, query string, language string, num int) ([]types.SearchResult, error)
}

// GoogleSearcher implements Searcher on the Google Custom Search JSON API.
type GoogleSearcher struct {
	svc         *customsearch.Service
	cx          string
	maxAttempts int
	retryBase   time.Duration
}

// NewGoogleSearcher creates a searcher bound to a Programmable Search engine.
func NewGoogleSearcher(ctx context.Context, apiKey string, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" {
		return nil, &SearchError{Message: "API key is required"}
	}
	if cx == "" {
		return nil, &SearchError{Message: "search engine ID is required"}
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &SearchError{
			Message: "failed to create customsearch service",
			Cause:   err,
		}
	}

	return &GoogleSearcher{
		svc:         svc,
		cx:          cx,
		maxAttempts: 2,
		retryBase:   time.Second,
	}, nil
}

// WithAttempts sets the attempt budget for transient failures. Values below
// one mean a single attempt with no retry. Returns the searcher for chaining.
func (g *GoogleSearcher) WithAttempts(attempts int) *GoogleSearcher {
	if attempts < 1 {
		attempts = 1
	}
	g.maxAttempts = attempts
	return g
}

// Search runs a single query, restricted to the given language, and returns
// results in the API's relevance order.
func (g *GoogleSearcher) Search(ctx context.Context, query string, language string, num int) ([]types.SearchResult, error) {
	if query == "" {
		return nil, &SearchError{Language: language, Message: "query is required"}
	}
	if num < 1 || num > maxResultsPerQuery {
		num = maxResultsPerQuery
	}

	call := g.svc.Cse.List().Context(ctx).Cx(g.cx).Q(query).Num(int64(num))
	if language != "" {
		call = call.Lr("lang_" + language)
	}

	resp, err := g.doWithRetry(ctx, call)
	if err != nil {
		return nil, &SearchError{
			Language: language,
			Message:  "search request failed",
			Cause:    err,
		}
	}

	// Zero hits is a valid outcome, not an error
	results := make([]types.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, types.SearchResult{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}

	return results, nil
}

// doWithRetry executes the call with bounded retries for transient failures.
func (g *GoogleSearcher) doWithRetry(ctx context.Context, call *customsearch.CseListCall) (*customsearch.Search, error) {
	attempts := g.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := g.retryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := call.Do()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

// isTransient reports whether a call is worth one more attempt:
// rate limiting, server-side 5xx, or network timeouts.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// RunQueries executes both language legs of a query set concurrently and
// assembles the sets in fixed order, English first, so the persisted artifact
// is deterministic. A failed leg records an empty result list so the artifact
// still shows the query was attempted; the returned error aggregates per-leg
// failures and the result is always usable.
func RunQueries(ctx context.Context, s Searcher, set *types.SearchQuerySet, perQuery int) (*types.SearchResults, error) {
	if set == nil {
		return nil, &SearchError{Message: "query set is required"}
	}

	legs := []struct {
		language string
		query    string
	}{
		{LanguageEnglish, set.EnglishQuery},
		{LanguageBangla, set.LocalizedQuery},
	}

	sets := make([]*types.SearchResultSet, len(legs))
	legErrs := make([]error, len(legs))

	g, gCtx := errgroup.WithContext(ctx)
	for i, leg := range legs {
		if leg.query == "" {
			continue
		}
		g.Go(func() error {
			items, err := s.Search(gCtx, leg.query, leg.language, perQuery)
			if err != nil {
				legErrs[i] = fmt.Errorf("%s leg: %w", leg.language, err)
				items = []types.SearchResult{}
			}
			sets[i] = &types.SearchResultSet{
				ProjectID: set.ProjectID,
				Language:  leg.language,
				Query:     leg.query,
				Results:   items,
			}
			return nil
		})
	}
	// Legs record their own failures and never return an error.
	_ = g.Wait()

	results := &types.SearchResults{ProjectID: set.ProjectID}
	for _, legSet := range sets {
		if legSet != nil {
			results.Sets = append(results.Sets, *legSet)
		}
	}
	return results, errors.Join(legErrs...)
}
