// Package plugins resolves page URLs that are not feeds themselves, such as a
// subreddit or a GitHub repository, to the feed the importer should fetch.
package plugins

import (
	"context"
	"net/http"
	"time"
)

// SourceInfo is what a plugin learned about a URL.
type SourceInfo struct {
	// OriginalURL is the URL that was asked for.
	OriginalURL string
	// FeedURL is the feed to fetch instead.
	FeedURL string
	// Title names the source when the feed itself has no title.
	Title    string
	Metadata map[string]string
}

// Plugin recognises one family of URLs.
type Plugin interface {
	Name() string
	CanHandle(url string) bool
	// Resolve may make HTTP requests with client to find the feed.
	Resolve(ctx context.Context, url string, client *http.Client) (*SourceInfo, error)
	// Priority breaks ties when several plugins handle a URL; higher wins.
	Priority() int
}

type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{client: &http.Client{Timeout: timeout}}
}

// DefaultRegistry has the built-in plugins registered.
func DefaultRegistry(timeout time.Duration) *Registry {
	r := NewRegistry(timeout)
	r.Register(NewRedditPlugin())
	r.Register(NewGitHubPlugin())
	return r
}

func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Find returns the highest-priority plugin that handles url, or nil.
func (r *Registry) Find(url string) Plugin {
	var best Plugin
	highest := -1
	for _, p := range r.plugins {
		if p.CanHandle(url) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// Resolve maps url to the feed to import. URLs no plugin handles resolve to
// themselves.
func (r *Registry) Resolve(ctx context.Context, url string) (*SourceInfo, error) {
	p := r.Find(url)
	if p == nil {
		return &SourceInfo{OriginalURL: url, FeedURL: url, Metadata: map[string]string{}}, nil
	}
	return p.Resolve(ctx, url, r.client)
}

func (r *Registry) List() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}
