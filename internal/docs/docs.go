// Package docs extracts tables from the Python documentation site: the
// "What's New" articles, the list of documentation versions, and the A4 PDF
// archive download.
package docs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agatinet31/pep-parser/internal/dom"
	"github.com/agatinet31/pep-parser/internal/logger"
	"github.com/agatinet31/pep-parser/internal/storage"
	"github.com/agatinet31/pep-parser/internal/table"
)

const MainDocURL = "https://docs.python.org/3/"

var (
	WhatsNewHeader       = []string{"Article link", "Title", "Editor, Author"}
	LatestVersionsHeader = []string{"Documentation link", "Version", "Status"}
)

var versionPattern = regexp.MustCompile(`Python (?P<version>\d\.\d+) \((?P<status>.*)\)`)

// Session is the fetch surface the workflows need. *fetch.Session implements it.
type Session interface {
	Document(ctx context.Context, url string) (*dom.Document, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Parser runs the documentation workflows against one documentation root.
type Parser struct {
	session Session
	baseURL string
	log     *logger.Logger
}

// New creates a Parser. An empty baseURL means MainDocURL.
func New(session Session, baseURL string, log *logger.Logger) *Parser {
	if baseURL == "" {
		baseURL = MainDocURL
	}
	if log == nil {
		log = logger.Default()
	}
	return &Parser{session: session, baseURL: baseURL, log: log}
}

func (p *Parser) resolve(ref string) (string, error) {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", ref, err)
	}
	return base.ResolveReference(target).String(), nil
}

// WhatsNew lists every "What's New" article with its title and authors.
// Articles that cannot be fetched or read are logged and left out.
func (p *Parser) WhatsNew(ctx context.Context) (*table.Table, error) {
	indexURL, err := p.resolve("whatsnew/")
	if err != nil {
		return nil, err
	}
	doc, err := p.session.Document(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching what's new index: %w", err)
	}

	wrapper, err := doc.One(doc.Selection, "section#what-s-new-in-python div.toctree-wrapper")
	if err != nil {
		return nil, err
	}

	result := table.New(WhatsNewHeader...)
	dom.All(wrapper, "li.toctree-l1").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		link, err := firstLink(doc, li, "a")
		if err != nil {
			p.log.Error("Article link missing", nil, err)
			return true
		}

		title, authors, err := p.article(ctx, link)
		if err != nil {
			p.log.Error("Article skipped", logger.Fields{"url": link}, err)
			return true
		}
		result.Append(link, title, authors)
		return true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// firstLink resolves the href of the first element under sel matching selector.
func firstLink(doc *dom.Document, sel *goquery.Selection, selector string) (string, error) {
	a, err := doc.One(sel, selector)
	if err != nil {
		return "", err
	}
	href, err := doc.Attr(a, "href")
	if err != nil {
		return "", err
	}
	return doc.Resolve(href)
}

func (p *Parser) article(ctx context.Context, link string) (string, string, error) {
	doc, err := p.session.Document(ctx, link)
	if err != nil {
		return "", "", err
	}
	h1, err := doc.One(doc.Selection, "h1")
	if err != nil {
		return "", "", err
	}
	dl, err := doc.One(doc.Selection, "dl")
	if err != nil {
		return "", "", err
	}

	// Sphinx appends a pilcrow permalink to headings.
	heading := h1.Clone()
	heading.Find("a.headerlink").Remove()

	return dom.Text(heading), dom.Text(dl), nil
}

// LatestVersions lists the documentation versions from the sidebar.
func (p *Parser) LatestVersions(ctx context.Context) (*table.Table, error) {
	doc, err := p.session.Document(ctx, p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching documentation index: %w", err)
	}

	sidebar, err := doc.One(doc.Selection, "div.sphinxsidebarwrapper")
	if err != nil {
		return nil, err
	}

	versions := dom.All(sidebar, "ul").FilterFunction(func(_ int, ul *goquery.Selection) bool {
		return strings.Contains(ul.Text(), "All versions")
	}).First()
	if versions.Length() == 0 {
		return nil, &dom.ExtractionError{Selector: "ul:All versions", Context: doc.URL()}
	}

	result := table.New(LatestVersionsHeader...)
	var linkErr error
	versions.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, err := doc.Attr(a, "href")
		if err != nil {
			p.log.Warn("Version link skipped", logger.Fields{"text": dom.Text(a), "error": err.Error()})
			return true
		}
		link, err := doc.Resolve(href)
		if err != nil {
			linkErr = err
			return false
		}
		version, status := parseVersion(dom.Text(a))
		result.Append(link, version, status)
		return true
	})
	if linkErr != nil {
		return nil, linkErr
	}

	return result, nil
}

// parseVersion splits "Python 3.13 (stable)" into version and status. Text
// that does not match is returned whole with an empty status.
func parseVersion(text string) (string, string) {
	m := versionPattern.FindStringSubmatch(text)
	if m == nil {
		return text, ""
	}
	return m[versionPattern.SubexpIndex("version")], m[versionPattern.SubexpIndex("status")]
}

// Download saves the A4 PDF documentation archive into dest and returns the
// saved path.
func (p *Parser) Download(ctx context.Context, dest *storage.Storage) (string, error) {
	pageURL, err := p.resolve("download.html")
	if err != nil {
		return "", err
	}
	doc, err := p.session.Document(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetching download page: %w", err)
	}

	tbl, err := doc.One(doc.Selection, "table.docutils")
	if err != nil {
		return "", err
	}
	archiveURL, err := firstLink(doc, tbl, `a[href$="pdf-a4.zip"]`)
	if err != nil {
		return "", fmt.Errorf("locating A4 PDF archive: %w", err)
	}

	name, err := archiveName(archiveURL)
	if err != nil {
		return "", err
	}
	f, err := dest.Create(name)
	if err != nil {
		return "", err
	}

	n, err := p.session.Download(ctx, archiveURL, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", f.Name(), closeErr)
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}

	p.log.Info("Archive downloaded and saved", logger.Fields{"path": f.Name(), "url": archiveURL, "bytes": n})
	return f.Name(), nil
}

func archiveName(archiveURL string) (string, error) {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return "", fmt.Errorf("parsing archive URL: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("archive URL has no file name: %s", archiveURL)
	}
	return name, nil
}
