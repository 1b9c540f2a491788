// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/renewable-watch/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProject outputs a human-readable summary of one registry project.
func (p *Printer) PrintProject(project *types.ProjectRecord) {
	if project == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %d\n", project.ID))
	sb.WriteString(fmt.Sprintf("Name:      %s\n", project.Name))
	if project.Location != "" {
		sb.WriteString(fmt.Sprintf("Location:  %s\n", project.Location))
	}
	if project.Technology != "" {
		sb.WriteString(fmt.Sprintf("Tech:      %s\n", project.Technology))
	}
	if project.CapacityMW > 0 {
		sb.WriteString(fmt.Sprintf("Capacity:  %.2f MW\n", project.CapacityMW))
	}
	if project.Agency != "" {
		sb.WriteString(fmt.Sprintf("Agency:    %s\n", project.Agency))
	}
	if project.HasCoordinates() {
		sb.WriteString(fmt.Sprintf("Coords:    %.4f, %.4f\n", *project.Latitude, *project.Longitude))
	}

	p.printBox("PROJECT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuerySet outputs the synthesized search queries for a project.
func (p *Printer) PrintQuerySet(set *types.SearchQuerySet) {
	if set == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Origin:   %s\n\n", set.Origin))
	sb.WriteString(fmt.Sprintf("English:  %s\n", set.EnglishQuery))
	sb.WriteString(fmt.Sprintf("Bangla:   %s", set.LocalizedQuery))

	p.printBox(fmt.Sprintf("SEARCH QUERIES (project %d)", set.ProjectID), sb.String())
}

// PrintSearchResults outputs the per-language result counts and top hits.
func (p *Printer) PrintSearchResults(results *types.SearchResults) {
	if results == nil || len(results.Sets) == 0 {
		return
	}

	var sb strings.Builder
	for i, set := range results.Sets {
		sb.WriteString(fmt.Sprintf("[%s] %d results\n", set.Language, len(set.Results)))
		count := min(len(set.Results), 3)
		for j := 0; j < count; j++ {
			title := set.Results[j].Title
			if len(title) > 45 {
				title = title[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", title))
		}
		if len(set.Results) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(set.Results)-3))
		}
		if i < len(results.Sets)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("SEARCH RESULTS (project %d)", results.ProjectID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintContentSet outputs per-URL extraction outcomes.
func (p *Printer) PrintContentSet(set *types.ContentSet) {
	if set == nil || len(set.Items) == 0 {
		return
	}

	var sb strings.Builder
	ok := 0
	for _, item := range set.Items {
		if item.Status == types.ExtractionOK {
			ok++
		}
	}
	sb.WriteString(fmt.Sprintf("Extracted %d/%d pages:\n\n", ok, len(set.Items)))

	count := min(len(set.Items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := set.Items[i]
		u := item.URL
		if len(u) > 42 {
			u = u[:39] + "..."
		}
		marker := "✓"
		if item.Status != types.ExtractionOK {
			marker = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, u))
	}
	if len(set.Items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more pages", len(set.Items)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("EXTRACTED CONTENT (project %d)", set.ProjectID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the opposition verdict for a project.
func (p *Printer) PrintSummary(summary *types.OppositionSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	verdict := "NO OPPOSITION FOUND"
	if summary.OppositionPresent {
		verdict = "OPPOSITION PRESENT"
	}
	sb.WriteString(fmt.Sprintf("Verdict:     %s\n", verdict))
	sb.WriteString(fmt.Sprintf("Confidence:  %.2f\n", summary.Confidence))

	if len(summary.OppositionTypes) > 0 {
		sb.WriteString(fmt.Sprintf("Types:       %s\n", strings.Join(summary.OppositionTypes, ", ")))
	}

	rationale := summary.Rationale
	if len(rationale) > 50 {
		rationale = rationale[:47] + "..."
	}
	sb.WriteString(fmt.Sprintf("\n%s\n", rationale))

	if len(summary.SupportingSources) > 0 {
		sb.WriteString("\nSources:\n")
		count := min(len(summary.SupportingSources), 3)
		for i := 0; i < count; i++ {
			u := summary.SupportingSources[i].URL
			if len(u) > 48 {
				u = u[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", u))
		}
		if len(summary.SupportingSources) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.SupportingSources)-3))
		}
	}

	p.printBox(fmt.Sprintf("OPPOSITION SUMMARY (project %d)", summary.ProjectID), strings.TrimSuffix(sb.String(), "\n"))
}
