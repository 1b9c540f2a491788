package registry

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// detailKeyPattern normalizes detail labels into CSV-safe keys.
var detailKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// numberPattern pulls signed decimals out of free-form coordinate text.
var numberPattern = regexp.MustCompile(`-?\d+\.?\d*`)

// CleanDetailKey normalizes a detail-page label for use as a map key and a
// CSV column suffix. "DC Capacity" becomes "DC_Capacity".
func CleanDetailKey(label string) string {
	return detailKeyPattern.ReplaceAllString(strings.TrimSpace(label), "_")
}

// parseDetailHTML extracts the key/value fields of a project detail page.
// The site renders them three ways: three-cell rows with a literal colon
// cell, two-cell label/value rows, and single cells holding "label: value".
func parseDetailHTML(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ScrapeError{Message: "failed to parse detail page HTML", Cause: err}
	}

	details := make(map[string]string)

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := cellTexts(tr)
		switch {
		case len(cells) >= 3 && cells[1] == ":":
			addDetail(details, cells[0], cells[2])
		case len(cells) == 2:
			addDetail(details, strings.TrimSuffix(cells[0], ":"), cells[1])
		case len(cells) == 1 && strings.Count(cells[0], ":") == 1:
			label, value, _ := strings.Cut(cells[0], ":")
			addDetail(details, label, value)
		}
	})

	return details, nil
}

// addDetail records one label/value pair, skipping blanks and the repeated
// "Item Name" column header the site renders above the field rows.
func addDetail(details map[string]string, label, value string) {
	label = strings.TrimSpace(label)
	value = strings.TrimSpace(value)
	if label == "" || value == "" || label == "Item Name" {
		return
	}
	details[CleanDetailKey(label)] = value
}

// ParseCoordinates extracts a latitude/longitude pair from free-form text
// such as "23.8103, 90.4125" or "23.81 N, 90.41 E". It reports ok=false when
// fewer than two numbers are present.
func ParseCoordinates(text string) (lat, lon float64, ok bool) {
	numbers := numberPattern.FindAllString(text, -1)
	if len(numbers) < 2 {
		return 0, 0, false
	}

	lat, latErr := strconv.ParseFloat(numbers[0], 64)
	lon, lonErr := strconv.ParseFloat(numbers[1], 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// CoordinatesFromDetails finds the registry's combined coordinate field.
// Label punctuation varies across project pages, so any key starting with
// "Latitude" qualifies.
func CoordinatesFromDetails(details map[string]string) (lat, lon float64, ok bool) {
	var keys []string
	for key := range details {
		if strings.HasPrefix(key, "Latitude") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return 0, 0, false
	}
	sort.Strings(keys)
	return ParseCoordinates(details[keys[0]])
}
