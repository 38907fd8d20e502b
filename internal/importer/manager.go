// Package importer turns RSS, Atom and JSON feeds into timeline events.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/plugins"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
	"github.com/pders01/timelines/internal/validation"
)

// Result summarises one import.
type Result struct {
	URL         string
	Title       string
	Events      int
	Actors      int
	Skipped     int
	NotModified bool
}

type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	urlValidator *validation.FeedURLValidator
	sources      *plugins.Registry
	searcher     search.Searcher
	now          func() time.Time
	mu           sync.Mutex
}

func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	m := &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		urlValidator: validation.NewFeedURLValidator(),
		sources:      plugins.DefaultRegistry(cfg.Import.HTTPTimeout),
		now:          time.Now,
	}
	m.SetPermissiveValidation(cfg.Import.AllowPrivate)
	return m
}

// SetSearcher registers the search backend to notify after an import.
func (m *Manager) SetSearcher(s search.Searcher) {
	m.searcher = s
}

// RegisterPlugin adds a source plugin ahead of feed URL validation.
func (m *Manager) RegisterPlugin(p plugins.Plugin) {
	m.sources.Register(p)
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified headers.
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows feeds on localhost and private networks.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

// ImportFeed fetches rawURL and stores its items as events of the world.
// An unchanged feed (HTTP 304) only refreshes the fetch timestamp.
func (m *Manager) ImportFeed(ctx context.Context, worldID, rawURL string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pageURL, err := m.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	source, err := m.sources.Resolve(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", pageURL, err)
	}
	feedURL := pageURL
	if source.FeedURL != pageURL {
		if feedURL, err = m.urlValidator.ValidateAndNormalize(source.FeedURL); err != nil {
			return nil, fmt.Errorf("invalid feed URL from %s plugin: %w", source.Metadata["plugin"], err)
		}
	}

	world, err := m.store.GetWorld(worldID)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	cal, err := calendar.Lookup(world.Calendar)
	if err != nil {
		return nil, err
	}
	cal = calendar.WithOrigin(cal, world.TimeOrigin)

	log := debuglog.WithFields(map[string]any{"world": worldID, "url": feedURL})

	meta, err := m.store.GetFetchMetadata(worldID, feedURL)
	if errors.Is(err, storage.ErrNotFound) {
		meta = &storage.FetchMetadata{WorldID: worldID, URL: feedURL}
	} else if err != nil {
		return nil, fmt.Errorf("loading fetch metadata: %w", err)
	}

	resp, modified, err := m.fetcher.Fetch(ctx, feedURL, meta)
	if err != nil {
		log.Warnf("fetch failed: %v", err)
		return nil, err
	}
	result := &Result{URL: feedURL}
	if !modified {
		meta.LastFetched = m.now()
		if err := m.store.SaveFetchMetadata(meta); err != nil {
			return nil, fmt.Errorf("saving fetch metadata: %w", err)
		}
		log.Debugf("feed not modified")
		result.NotModified = true
		return result, nil
	}
	defer resp.Body.Close()

	feed, err := m.parser.Parse(resp.Body, worldID, cal)
	if err != nil {
		return nil, err
	}

	for _, a := range feed.Actors {
		if err := m.store.SaveActor(a); err != nil {
			return nil, fmt.Errorf("saving actor %s: %w", a.Name, err)
		}
	}
	if err := m.store.SaveEvents(feed.Events); err != nil {
		return nil, fmt.Errorf("saving events: %w", err)
	}

	UpdateMetadata(meta, resp, m.now())
	if err := m.store.SaveFetchMetadata(meta); err != nil {
		return nil, fmt.Errorf("saving fetch metadata: %w", err)
	}

	if m.searcher != nil {
		search.Notify(m.searcher, worldID)
	}

	result.Title = feed.Title
	if result.Title == "" {
		result.Title = source.Title
	}
	result.Events = len(feed.Events)
	result.Actors = len(feed.Actors)
	result.Skipped = feed.Skipped
	log.Infof("imported %d events, %d actors (%d items skipped)", result.Events, result.Actors, result.Skipped)
	return result, nil
}
