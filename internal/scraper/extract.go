package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultTableSelector matches the fixture table on the club calendar page
const DefaultTableSelector = "table.stat-table"

// cellSelector covers plain cells and the links inside them, in document order
const cellSelector = "td, a"

var (
	// ErrNoMarkup is returned for empty input; the run continues with no rows
	ErrNoMarkup = errors.New("no markup to parse")
	// ErrTableNotFound is returned when the fixture table or its body is missing
	ErrTableNotFound = errors.New("fixture table not found")
)

// Extractor pulls raw row fields out of the fixture table
type Extractor struct {
	TableSelector string
}

// NewExtractor creates an Extractor for the given table selector,
// falling back to DefaultTableSelector when it is empty.
func NewExtractor(tableSelector string) *Extractor {
	if strings.TrimSpace(tableSelector) == "" {
		tableSelector = DefaultTableSelector
	}
	return &Extractor{TableSelector: tableSelector}
}

// Extract returns, for every row of the table body, the stripped text of each
// cell and link in left-to-right order. A cell holding a link therefore yields
// two consecutive values: the cell text and the link text.
func (e *Extractor) Extract(markup string) ([][]string, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrNoMarkup
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find(e.TableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no element matches %q", ErrTableNotFound, e.TableSelector)
	}

	tbody := table.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("%w: %q has no tbody", ErrTableNotFound, e.TableSelector)
	}

	rows := make([][]string, 0)
	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		fields := make([]string, 0)
		tr.Find(cellSelector).Each(func(_ int, cell *goquery.Selection) {
			fields = append(fields, strippedText(cell))
		})
		rows = append(rows, fields)
	})

	return rows, nil
}

// strippedText joins the selection's text nodes with each node trimmed,
// so "10.02.2026 <span>|</span> 10:00" becomes "10.02.2026|10:00".
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeStrippedText(&b, n)
	}
	return b.String()
}

func writeStrippedText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeStrippedText(b, c)
	}
}
