package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/agatinet31/pep-parser/internal/dom"
	"github.com/agatinet31/pep-parser/internal/logger"
)

const (
	UserAgent = "pep-parser/1.0 (github.com/agatinet31/pep-parser)"
	Timeout   = 30 * time.Second
)

// FetchError reports that a page could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a Session.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables pacing
	Cache             *Cache  // nil disables caching
	Logger            *logger.Logger
	Metrics           *logger.Metrics
}

// Session performs HTTP GETs with caching and request pacing.
type Session struct {
	client    *http.Client
	userAgent string
	cache     *Cache
	limiter   *rate.Limiter
	log       *logger.Logger
	metrics   *logger.Metrics
}

// New creates a Session from opts, filling in defaults.
func New(opts Options) *Session {
	s := &Session{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		cache:     opts.Cache,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
	if s.client.Timeout == 0 {
		s.client.Timeout = Timeout
	}
	if s.userAgent == "" {
		s.userAgent = UserAgent
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if s.metrics == nil {
		s.metrics = logger.DefaultMetrics()
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return s
}

// ClearCache drops every cached response. It is a no-op without a cache.
func (s *Session) ClearCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear()
}

// Get returns the body of url, from the cache when a fresh copy exists.
func (s *Session) Get(ctx context.Context, url string) ([]byte, error) {
	if s.cache != nil {
		body, ok, err := s.cache.Get(url)
		if err != nil {
			s.log.Warn("Cache read failed", logger.Fields{"url": url, "error": err.Error()})
		} else if ok {
			s.metrics.IncrCounter("fetch.cache_hit")
			s.log.Debug("Cache hit", logger.Fields{"url": url})
			return body, nil
		}
	}

	resp, err := s.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	if s.cache != nil {
		if err := s.cache.Set(url, body); err != nil {
			s.log.Warn("Cache write failed", logger.Fields{"url": url, "error": err.Error()})
		}
	}
	return body, nil
}

// Document fetches url and parses it as HTML.
func (s *Session) Document(ctx context.Context, url string) (*dom.Document, error) {
	body, err := s.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(body), url)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// Download streams the body of url into w, bypassing the cache.
func (s *Session) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := s.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return n, nil
}

// do issues the request; the caller closes the body on success.
func (s *Session) do(ctx context.Context, url string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	s.metrics.RecordTiming("fetch.http", time.Since(start))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
