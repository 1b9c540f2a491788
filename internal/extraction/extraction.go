// Package extraction turns search result URLs into a normalized text corpus.
// Each URL is fetched exactly once; failures are recorded alongside successes
// so the content artifact is a complete account of what was attempted.
package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/renewable-watch/internal/fetch"
	"github.com/jonathan/renewable-watch/internal/types"
)

const (
	// DefaultRequestDelay is the polite delay between page fetches
	DefaultRequestDelay = 2 * time.Second
	// DefaultMaxContentChars caps normalized text per page
	DefaultMaxContentChars = 15000
)

// Options configures corpus extraction.
type Options struct {
	FetchTimeout    time.Duration
	RequestDelay    time.Duration
	MaxContentChars int
	MaxBodyBytes    int64
	UseBrowser      bool
	Verbose         bool
}

// DefaultOptions returns sensible defaults for extraction.
func DefaultOptions() *Options {
	return &Options{
		FetchTimeout:    fetch.DefaultTimeout,
		RequestDelay:    DefaultRequestDelay,
		MaxContentChars: DefaultMaxContentChars,
		MaxBodyBytes:    fetch.DefaultMaxBodySize,
	}
}

// ExtractAll fetches every URL once, in order, and returns the content set.
// Individual pages fail soft; the only returned error is context cancellation.
func ExtractAll(ctx context.Context, projectID int, urls []string, opts *Options) (*types.ContentSet, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	set := &types.ContentSet{
		ProjectID: projectID,
		Items:     make([]types.ExtractedContent, 0, len(urls)),
	}

	visited := make(map[string]bool)
	for _, pageURL := range urls {
		if pageURL == "" || visited[pageURL] {
			continue
		}

		if len(visited) > 0 && opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return set, ctx.Err()
			case <-time.After(opts.RequestDelay):
			}
		}
		visited[pageURL] = true

		item := extractOne(ctx, projectID, pageURL, opts)
		set.Items = append(set.Items, item)
	}

	return set, nil
}

// extractOne fetches and normalizes a single page. Pages are never refetched
// on failure; the outcome is recorded and the pipeline moves on.
func extractOne(ctx context.Context, projectID int, pageURL string, opts *Options) types.ExtractedContent {
	item := types.ExtractedContent{
		ProjectID: projectID,
		URL:       pageURL,
	}

	fetchOpts := &fetch.Options{
		Timeout:     opts.FetchTimeout,
		UserAgent:   fetch.DefaultUserAgent,
		MaxBodySize: opts.MaxBodyBytes,
	}

	result, err := fetch.URL(ctx, pageURL, fetchOpts)
	if err != nil {
		item.Status = types.ExtractionFailed
		item.Error = err.Error()
		return item
	}

	if !isTextContent(result.ContentType) {
		item.Status = types.ExtractionEmpty
		item.Error = fmt.Sprintf("unsupported content type: %s", result.ContentType)
		return item
	}

	site := fetch.DetectSite(pageURL)
	text, err := fetch.ExtractMainText(result.HTML, fetch.SiteContentSelectors(site), fetch.SiteNoiseSelectors(site)...)
	if err != nil {
		item.Status = types.ExtractionFailed
		item.Error = (&ExtractionError{URL: pageURL, Message: "failed to parse HTML", Cause: err}).Error()
		return item
	}

	// JavaScript-rendered pages come back nearly empty over plain HTTP
	if opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		if rendered, berr := fetch.WithBrowser(ctx, pageURL, opts.FetchTimeout, opts.Verbose); berr == nil {
			if renderedText, terr := fetch.ExtractMainText(rendered, fetch.SiteContentSelectors(site), fetch.SiteNoiseSelectors(site)...); terr == nil && len(renderedText) > len(text) {
				text = renderedText
			}
		}
	}

	text = CleanText(text)
	text = Truncate(text, opts.MaxContentChars)

	if text == "" {
		item.Status = types.ExtractionEmpty
		item.Error = "no usable text on page"
		return item
	}

	item.Status = types.ExtractionOK
	item.NormalizedText = text
	return item
}

// isTextContent reports whether a Content-Type header denotes a page we can
// extract text from. PDFs, images and other binaries are skipped.
func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "text/plain") ||
		strings.Contains(ct, "application/xhtml")
}

// BuildCorpus concatenates the successfully extracted texts into the corpus
// handed to the classifier. Each section is labeled with its source URL so
// the classifier can cite real sources.
func BuildCorpus(set *types.ContentSet) string {
	if set == nil {
		return ""
	}

	var sections []string
	for _, item := range set.Items {
		if item.Status != types.ExtractionOK || item.NormalizedText == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("Source: %s\n\n%s", item.URL, item.NormalizedText))
	}

	return strings.Join(sections, "\n\n---\n\n")
}
