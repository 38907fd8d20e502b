package plugins

import (
	"context"
	"net/http"
	"strings"
)

// RedditPlugin turns subreddit URLs into their RSS feeds.
type RedditPlugin struct{}

func NewRedditPlugin() *RedditPlugin { return &RedditPlugin{} }

func (p *RedditPlugin) Name() string { return "reddit" }

func (p *RedditPlugin) CanHandle(url string) bool {
	if strings.HasSuffix(strings.TrimSuffix(url, "/"), ".rss") {
		return false
	}
	return strings.Contains(url, "://www.reddit.com/r/") ||
		strings.Contains(url, "://reddit.com/r/") ||
		strings.Contains(url, "://old.reddit.com/r/")
}

func (p *RedditPlugin) Priority() int { return 50 }

func (p *RedditPlugin) Resolve(_ context.Context, rawURL string, _ *http.Client) (*SourceInfo, error) {
	base, _, _ := strings.Cut(rawURL, "?")
	subreddit := "unknown"
	if _, rest, ok := strings.Cut(base, "/r/"); ok {
		subreddit, _, _ = strings.Cut(rest, "/")
	}
	return &SourceInfo{
		OriginalURL: rawURL,
		FeedURL:     strings.TrimSuffix(base, "/") + ".rss",
		Title:       "r/" + subreddit,
		Metadata: map[string]string{
			"plugin":    "reddit",
			"subreddit": subreddit,
		},
	}, nil
}
