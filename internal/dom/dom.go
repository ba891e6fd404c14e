// Package dom wraps goquery with the small query surface the parsers need:
// required lookups that fail with ExtractionError, optional lookups that may
// come back empty, and link resolution against the page URL.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionError reports that a required element is absent from a document.
type ExtractionError struct {
	Selector string
	Context  string // where the lookup ran, e.g. the page URL
}

func (e *ExtractionError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("element not found: %s", e.Selector)
	}
	return fmt.Sprintf("element not found: %s (in %s)", e.Selector, e.Context)
}

// Document is a parsed HTML page together with the URL it was loaded from.
type Document struct {
	*goquery.Document
	base *url.URL
}

// Parse reads HTML from r. baseURL is used to resolve relative links and may
// be empty.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
	}

	return &Document{Document: doc, base: base}, nil
}

// ParseString is Parse for in-memory HTML.
func ParseString(html, baseURL string) (*Document, error) {
	return Parse(strings.NewReader(html), baseURL)
}

// URL returns the page URL, or "" when the document has none.
func (d *Document) URL() string {
	if d.base == nil {
		return ""
	}
	return d.base.String()
}

// Resolve turns href into an absolute URL relative to the document URL.
func (d *Document) Resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", href, err)
	}
	if d.base == nil {
		return ref.String(), nil
	}
	return d.base.ResolveReference(ref).String(), nil
}

// One returns the first element under sel matching selector.
func (d *Document) One(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	found := sel.Find(selector)
	if found.Length() == 0 {
		return nil, &ExtractionError{Selector: selector, Context: d.URL()}
	}
	return found.First(), nil
}

// All returns every element under sel matching selector. The result may be empty.
func All(sel *goquery.Selection, selector string) *goquery.Selection {
	return sel.Find(selector)
}

// Attr returns a required attribute of sel.
func (d *Document) Attr(sel *goquery.Selection, name string) (string, error) {
	v, ok := sel.Attr(name)
	if !ok {
		return "", &ExtractionError{Selector: "[" + name + "]", Context: d.URL()}
	}
	return v, nil
}

// Text returns the text content of sel with runs of whitespace collapsed.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
