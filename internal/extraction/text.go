package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var spaceRe = regexp.MustCompile(`\s+`)
var blankLinesRe = regexp.MustCompile(`\n\n\n+`)

// CleanText normalizes extracted page text: line endings, per-line whitespace,
// and runs of blank lines. Paragraph breaks survive as single blank lines.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			line = spaceRe.ReplaceAllString(line, " ")
		}
		cleanedLines = append(cleanedLines, line)
	}

	result := strings.Join(cleanedLines, "\n")

	// Reduce 3+ consecutive newlines to 2
	result = blankLinesRe.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}

// Truncate cuts text to at most max characters, never splitting a rune.
// Bangla pages are multi-byte throughout, so byte slicing is not safe here.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
