// Package fetch - site.go provides news site detection and site-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Site represents a known Bangladeshi news outlet.
type Site string

const (
	// SiteDailyStar is The Daily Star
	SiteDailyStar Site = "dailystar"
	// SiteProthomAlo is Prothom Alo
	SiteProthomAlo Site = "prothomalo"
	// SiteBdnews24 is bdnews24.com
	SiteBdnews24 Site = "bdnews24"
	// SiteDhakaTribune is Dhaka Tribune
	SiteDhakaTribune Site = "dhakatribune"
	// SiteNewAge is New Age
	SiteNewAge Site = "newage"
	// SiteUnknown is an unrecognized site
	SiteUnknown Site = "unknown"
)

// DetectSite identifies the news outlet from a URL.
func DetectSite(urlStr string) Site {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return SiteUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "thedailystar.net") {
		return SiteDailyStar
	}

	if strings.Contains(host, "prothomalo.com") ||
		strings.Contains(host, "en.prothomalo.com") {
		return SiteProthomAlo
	}

	if strings.Contains(host, "bdnews24.com") {
		return SiteBdnews24
	}

	if strings.Contains(host, "dhakatribune.com") {
		return SiteDhakaTribune
	}

	if strings.Contains(host, "newagebd.net") {
		return SiteNewAge
	}

	return SiteUnknown
}

// SiteContentSelectors returns content selectors optimized for a specific outlet.
func SiteContentSelectors(site Site) []string {
	switch site {
	case SiteDailyStar:
		return []string{
			".detailed-centerbar", // Primary Daily Star selector
			".article-content",    // Fallback
			".pb-20.detailed",     // Alternative
			"article",             // Generic fallback
		}
	case SiteProthomAlo:
		return []string{
			".story-element-text",
			".story-content",
			".storyCard",
			"article",
		}
	case SiteBdnews24:
		return []string{
			".custombody",
			".article-body",
			".print-details",
			"article",
		}
	case SiteDhakaTribune:
		return []string{
			".report-content",
			".article-content",
			".jw_article_body",
			"article",
		}
	case SiteNewAge:
		return []string{
			".post-content",
			".news-details",
			"article",
		}
	default:
		return NewsArticleSelectors()
	}
}

// SiteNoiseSelectors returns noise exclusion selectors for a specific outlet.
func SiteNoiseSelectors(site Site) []string {
	// Common noise selectors for all outlets
	common := []string{
		// Related and recommended blocks
		".related-news",
		".related-stories",
		".also-read",
		".read-more",
		".more-news",
		"[data-testid='related']",

		// Social and share buttons
		".social-share",
		".share-buttons",
		".social-links",

		// Comments and subscription prompts
		".comments",
		"#comments",
		".subscribe-box",
		".newsletter-signup",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",

		// Generic navigation already handled in fetch.go
	}

	// Site-specific noise selectors
	switch site {
	case SiteDailyStar:
		return append(common,
			".sidebar-latest",
			".top-news-slot",
			".google-news-banner",
		)
	case SiteProthomAlo:
		return append(common,
			".ad-container",
			".latest-widget",
		)
	case SiteBdnews24:
		return append(common,
			".most-read",
			".trending",
		)
	case SiteDhakaTribune:
		return append(common,
			".trending-topics",
			".editor-picks",
		)
	default:
		return common
	}
}
