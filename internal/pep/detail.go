package pep

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agatinet31/pep-parser/internal/dom"
)

const statusLabel = "Status"

// PageFetcher loads a parsed page. *fetch.Session implements it.
type PageFetcher interface {
	Document(ctx context.Context, url string) (*dom.Document, error)
}

// Resolver looks up the authoritative status of one PEP.
type Resolver interface {
	ResolveStatus(ctx context.Context, detailURL string) (string, error)
}

// DetailResolver reads the status field from PEP detail pages.
type DetailResolver struct {
	Pages PageFetcher
}

// ResolveStatus fetches detailURL and returns the status shown next to the
// "Status" label. Fetch failures are returned unchanged; a page without the
// field yields an ExtractionError.
func (r *DetailResolver) ResolveStatus(ctx context.Context, detailURL string) (string, error) {
	doc, err := r.Pages.Document(ctx, detailURL)
	if err != nil {
		return "", err
	}
	return StatusFromDetail(doc)
}

// StatusFromDetail extracts the status name from a parsed detail page.
func StatusFromDetail(doc *dom.Document) (string, error) {
	label := doc.Find("dt").FilterFunction(func(_ int, dt *goquery.Selection) bool {
		return strings.TrimSuffix(dom.Text(dt), ":") == statusLabel
	}).First()
	if label.Length() == 0 {
		return "", &dom.ExtractionError{Selector: "dt:Status", Context: doc.URL()}
	}

	value := label.NextAllFiltered("dd").First()
	if value.Length() == 0 {
		return "", &dom.ExtractionError{Selector: "dt:Status + dd", Context: doc.URL()}
	}

	if abbr := value.Find("abbr").First(); abbr.Length() > 0 {
		return dom.Text(abbr), nil
	}
	return dom.Text(value), nil
}
