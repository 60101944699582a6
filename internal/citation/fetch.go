// Package citation turns source references into citation lines. URLs are
// fetched and rendered in a simplified APA style; anything else passes
// through as free text.
package citation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 5 * time.Second

// DefaultUserAgent is sent with every fetch.
const DefaultUserAgent = "Mozilla/5.0 (compatible; decidoc/1.0)"

// maxBody limits how much of a page is parsed.
const maxBody = 2 << 20

// Metadata is what a fetch extracts from a page.
type Metadata struct {
	Title    string
	SiteName string
}

// Fetcher retrieves citation metadata for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Metadata, error)
}

// HTTPFetcher implements Fetcher with a plain HTTP GET.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPFetcher creates a fetcher. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Fetch downloads rawURL and extracts its title and site name. The site
// name prefers the og:site_name annotation and falls back to the host
// without a leading "www.". The title falls back to the URL itself.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("citation: parse url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("citation: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("citation: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("citation: fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("citation: parse html: %w", err)
	}

	meta := &Metadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if meta.Title == "" {
		meta.Title = rawURL
	}
	if site, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		meta.SiteName = strings.TrimSpace(site)
	}
	if meta.SiteName == "" {
		meta.SiteName = strings.TrimPrefix(u.Host, "www.")
	}
	return meta, nil
}
