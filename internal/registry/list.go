package registry

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Column labels of the registry list table. The header row is located by
// content rather than position because the site puts filter and title rows
// above it.
const (
	headerName           = "Project Name"
	headerSID            = "SID"
	headerCapacity       = "Capacity"
	headerLocation       = "Location"
	headerTechnology     = "RE Technology"
	headerAgency         = "Agency"
	headerFinance        = "Finance LMFD"
	headerCompletionDate = "Completion Date"
	headerStatus         = "Present Status"
)

// listRow is one data row of the registry list table.
type listRow struct {
	KID            int
	SID            string
	Name           string
	Capacity       string
	Location       string
	Technology     string
	Agency         string
	FinanceLMFD    string
	CompletionDate string
	Status         string
	DetailLink     string
}

// parseListHTML extracts project rows from one list page. The projects table
// is identified by a header row containing both the SID and Project Name
// labels; rows without a kid= detail link are titles, filters or pagination
// and are skipped.
func parseListHTML(html string) ([]listRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ScrapeError{Message: "failed to parse list page HTML", Cause: err}
	}

	var rows []listRow
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		trs := table.Find("tr")

		headerIndex := -1
		var columns map[string]int
		trs.EachWithBreak(func(i int, tr *goquery.Selection) bool {
			cells := cellTexts(tr)
			if containsAll(cells, headerSID, headerName) {
				headerIndex = i
				columns = columnIndex(cells)
				return false
			}
			return true
		})
		if headerIndex < 0 {
			return true // not the projects table, keep looking
		}
		found = true

		trs.Each(func(i int, tr *goquery.Selection) {
			if i <= headerIndex {
				return
			}
			if row, ok := parseListRow(tr, columns); ok {
				rows = append(rows, row)
			}
		})
		return false
	})

	if !found {
		return nil, &ScrapeError{Message: "no projects table found (missing SID / Project Name header row)"}
	}
	return rows, nil
}

// parseListRow maps one table row onto a listRow. Rows without a kid= link
// have no detail page and are dropped.
func parseListRow(tr *goquery.Selection, columns map[string]int) (listRow, bool) {
	kid, detailLink, ok := detailLinkKID(tr)
	if !ok {
		return listRow{}, false
	}

	cells := cellTexts(tr)
	cell := func(label string) string {
		idx, ok := columns[label]
		if !ok || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	return listRow{
		KID:            kid,
		SID:            cell(headerSID),
		Name:           cell(headerName),
		Capacity:       cell(headerCapacity),
		Location:       cell(headerLocation),
		Technology:     cell(headerTechnology),
		Agency:         cell(headerAgency),
		FinanceLMFD:    cell(headerFinance),
		CompletionDate: cell(headerCompletionDate),
		Status:         cell(headerStatus),
		DetailLink:     detailLink,
	}, true
}

// detailLinkKID finds the row's detail link and extracts its kid parameter.
func detailLinkKID(tr *goquery.Selection) (kid int, link string, found bool) {
	tr.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		_, after, ok := strings.Cut(href, "kid=")
		if !ok {
			return true
		}
		value, _, _ := strings.Cut(after, "&")
		n, err := strconv.Atoi(value)
		if err != nil {
			return true
		}
		kid = n
		link = href
		found = true
		return false
	})

	return kid, link, found
}

// cellTexts returns the trimmed text of every cell in a row.
func cellTexts(tr *goquery.Selection) []string {
	var texts []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	return texts
}

// columnIndex maps header labels to their cell positions.
func columnIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if h != "" {
			index[h] = i
		}
	}
	return index
}

func containsAll(texts []string, wanted ...string) bool {
	for _, w := range wanted {
		found := false
		for _, t := range texts {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
