// Package registry scrapes the Bangladesh renewable energy project registry
// into ProjectRecords. The site serves a paginated list table plus one detail
// page per project; both are server-rendered HTML behind index.php.
package registry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/renewable-watch/internal/fetch"
	"github.com/jonathan/renewable-watch/internal/types"
)

const (
	// DefaultBaseURL is the government registry site.
	DefaultBaseURL = "https://www.renewableenergy.gov.bd"
	// DefaultPages is the number of paginated list pages the registry serves.
	DefaultPages = 3
	// DefaultRequestDelay is the polite delay between page fetches.
	DefaultRequestDelay = 2 * time.Second
)

// Options configures a scrape run.
type Options struct {
	BaseURL      string
	Pages        int
	FetchTimeout time.Duration
	RequestDelay time.Duration
	UseBrowser   bool
	Verbose      bool
}

// DefaultOptions returns sensible defaults for scraping the live site.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:      DefaultBaseURL,
		Pages:        DefaultPages,
		FetchTimeout: fetch.DefaultTimeout,
		RequestDelay: DefaultRequestDelay,
	}
}

// ListPageURL returns the URL of one page of the paginated projects table.
func ListPageURL(base string, page int) string {
	return fmt.Sprintf("%s/index.php?id=1&i=1&pg=%d", strings.TrimSuffix(base, "/"), page)
}

// DetailPageURL returns the URL of a project's detail page.
func DetailPageURL(base string, kid int) string {
	return fmt.Sprintf("%s/index.php?id=06&kid=%d", strings.TrimSuffix(base, "/"), kid)
}

// Scrape fetches every list page and every project detail page sequentially
// and returns the assembled records. Individual page and detail failures are
// logged and skipped; the only fatal conditions are cancellation and an
// empty result across all list pages.
func Scrape(ctx context.Context, opts *Options) ([]types.ProjectRecord, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	base := strings.TrimSuffix(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	pages := opts.Pages
	if pages < 1 {
		pages = DefaultPages
	}

	var rows []listRow
	for page := 1; page <= pages; page++ {
		if page > 1 {
			if err := politeDelay(ctx, opts.RequestDelay); err != nil {
				return nil, err
			}
		}

		pageURL := ListPageURL(base, page)
		if opts.Verbose {
			log.Printf("[scrape] fetching %s", pageURL)
		}

		html, err := fetchHTML(ctx, pageURL, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[scrape] page %d failed: %v", page, err)
			continue
		}

		pageRows, err := parseListHTML(html)
		if err != nil {
			log.Printf("[scrape] page %d: %v", page, err)
			continue
		}

		log.Printf("[scrape] page %d: %d rows", page, len(pageRows))
		rows = append(rows, pageRows...)
	}

	if len(rows) == 0 {
		return nil, &ScrapeError{Message: "no projects found on any list page"}
	}

	records := make([]types.ProjectRecord, 0, len(rows))
	for i, row := range rows {
		if err := politeDelay(ctx, opts.RequestDelay); err != nil {
			return nil, err
		}

		detailURL := DetailPageURL(base, row.KID)
		if opts.Verbose {
			log.Printf("[scrape] details %d/%d: %s", i+1, len(rows), detailURL)
		}

		details := map[string]string{}
		html, err := fetchHTML(ctx, detailURL, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[scrape] details for project %d failed: %v", row.KID, err)
		} else if parsed, perr := parseDetailHTML(html); perr != nil {
			log.Printf("[scrape] details for project %d: %v", row.KID, perr)
		} else {
			details = parsed
		}

		records = append(records, buildRecord(row, details))
	}

	log.Printf("[scrape] scraped %d projects from %d pages", len(records), pages)
	return records, nil
}

// fetchHTML retrieves a page over plain HTTP, or through a headless browser
// when the run was started with --use-browser.
func fetchHTML(ctx context.Context, pageURL string, opts *Options) (string, error) {
	if opts.UseBrowser {
		return fetch.WithBrowser(ctx, pageURL, opts.FetchTimeout, opts.Verbose)
	}

	result, err := fetch.URL(ctx, pageURL, &fetch.Options{
		Timeout:   opts.FetchTimeout,
		UserAgent: fetch.DefaultUserAgent,
	})
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// politeDelay sleeps between requests so the scraper never hammers the site.
func politeDelay(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// buildRecord assembles a ProjectRecord from a list row and its detail
// fields. The list-level SID and financing cells are folded into the details
// map so the CSV keeps every scraped value.
func buildRecord(row listRow, details map[string]string) types.ProjectRecord {
	merged := make(map[string]string, len(details)+2)
	if row.SID != "" {
		merged["SID"] = row.SID
	}
	if row.FinanceLMFD != "" {
		merged["Finance_LMFD"] = row.FinanceLMFD
	}
	for key, value := range details {
		merged[key] = value
	}

	record := types.ProjectRecord{
		ID:             row.KID,
		Name:           row.Name,
		Location:       row.Location,
		Technology:     row.Technology,
		CapacityDC:     merged["DC_Capacity"],
		CapacityAC:     merged["AC_Capacity"],
		Agency:         row.Agency,
		Status:         row.Status,
		CompletionDate: row.CompletionDate,
		Details:        merged,
	}

	// The list table carries a single capacity cell; detail pages split it
	// into DC and AC. Keep the list value when the detail page had neither.
	if record.CapacityDC == "" {
		record.CapacityDC = row.Capacity
	}

	if lat, lon, ok := CoordinatesFromDetails(merged); ok {
		record.Latitude = &lat
		record.Longitude = &lon
	}

	return record
}
