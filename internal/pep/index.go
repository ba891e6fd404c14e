package pep

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agatinet31/pep-parser/internal/dom"
)

const (
	indexSectionSelector = "section#numerical-index"
	indexRowSelector     = "tbody tr"
	leadingCellSelector  = "td"
	codeSelector         = "abbr"
	anchorSelector       = "a"
)

// ItemRecord is one row of the numerical index.
type ItemRecord struct {
	ID         string
	StatusCode string // zero or one character
	DetailURL  string
}

// IndexEntry is the result of extracting one index row: either an item or
// the reason the row could not be read.
type IndexEntry struct {
	Row  int // 1-based position in the index
	Item ItemRecord
	Err  error
}

// ExtractItems reads the numerical index of doc in row order. A missing
// index section fails the whole extraction; a malformed row yields an entry
// carrying its ExtractionError.
func ExtractItems(doc *dom.Document) ([]IndexEntry, error) {
	section, err := doc.One(doc.Selection, indexSectionSelector)
	if err != nil {
		return nil, fmt.Errorf("locating numerical index: %w", err)
	}

	rows := dom.All(section, indexRowSelector)
	entries := make([]IndexEntry, 0, rows.Length())
	rows.Each(func(i int, tr *goquery.Selection) {
		item, err := extractRow(doc, tr)
		entries = append(entries, IndexEntry{Row: i + 1, Item: item, Err: err})
	})

	return entries, nil
}

func extractRow(doc *dom.Document, tr *goquery.Selection) (ItemRecord, error) {
	// The code lives only in the row's first cell.
	cell, err := doc.One(tr, leadingCellSelector)
	if err != nil {
		return ItemRecord{}, err
	}
	abbr, err := doc.One(cell, codeSelector)
	if err != nil {
		return ItemRecord{}, err
	}

	a, err := doc.One(tr, anchorSelector)
	if err != nil {
		return ItemRecord{}, err
	}
	href, err := doc.Attr(a, "href")
	if err != nil {
		return ItemRecord{}, err
	}
	link, err := doc.Resolve(href)
	if err != nil {
		return ItemRecord{}, err
	}

	return ItemRecord{
		ID:         dom.Text(a),
		StatusCode: statusCode(dom.Text(abbr)),
		DetailURL:  link,
	}, nil
}

// statusCode takes the first character of the abbreviation; the rest is
// decoration.
func statusCode(abbr string) string {
	abbr = strings.TrimSpace(abbr)
	for _, r := range abbr {
		return string(r)
	}
	return ""
}
