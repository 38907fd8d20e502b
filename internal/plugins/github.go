package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GitHubPlugin imports a repository's releases, or its tags when the URL
// points at /tags, so a project's history lands on a timeline.
type GitHubPlugin struct{}

func NewGitHubPlugin() *GitHubPlugin { return &GitHubPlugin{} }

func (p *GitHubPlugin) Name() string { return "github" }

func (p *GitHubPlugin) CanHandle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Host != "github.com" && u.Host != "www.github.com") {
		return false
	}
	if strings.HasSuffix(u.Path, ".atom") {
		return false
	}
	return len(pathParts(u.Path)) >= 2
}

func (p *GitHubPlugin) Priority() int { return 50 }

func (p *GitHubPlugin) Resolve(_ context.Context, raw string, _ *http.Client) (*SourceInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", raw, err)
	}
	parts := pathParts(u.Path)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%q does not name a repository", raw)
	}
	owner, repo := parts[0], strings.TrimSuffix(parts[1], ".git")

	kind := "releases"
	if len(parts) > 2 && parts[2] == "tags" {
		kind = "tags"
	}
	return &SourceInfo{
		OriginalURL: raw,
		FeedURL:     fmt.Sprintf("https://github.com/%s/%s/%s.atom", owner, repo, kind),
		Title:       fmt.Sprintf("%s/%s %s", owner, repo, kind),
		Metadata: map[string]string{
			"plugin": "github",
			"owner":  owner,
			"repo":   repo,
		},
	}, nil
}

func pathParts(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
