package importer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/storage"
)

// StatusError is returned for HTTP responses other than 2xx and 304.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Code)
}

type Fetcher struct {
	client      *http.Client
	userAgent   string
	ignoreCache bool
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Import.HTTPTimeout},
		userAgent: cfg.Import.UserAgent,
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch issues a GET for url. When meta carries an ETag or Last-Modified
// value the request is conditional; a 304 answer returns a nil response and
// modified == false. The caller closes the body of a non-nil response.
func (f *Fetcher) Fetch(ctx context.Context, url string, meta *storage.FetchMetadata) (*http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	if meta != nil && !f.ignoreCache {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		resp.Body.Close()
		return nil, false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, false, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, true, nil
}

// UpdateMetadata copies the validators of resp into meta.
func UpdateMetadata(meta *storage.FetchMetadata, resp *http.Response, now time.Time) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		meta.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		meta.LastModified = lastMod
	}
	meta.LastFetched = now
}
