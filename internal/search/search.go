package search

import (
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/storage"
)

const BackendBleve = "bleve"

// New returns the backend named by cfg.Search.Backend. A bleve index that
// cannot be opened falls back to the in-process Engine.
func New(store *storage.Store, cfg *config.Config) Searcher {
	if cfg.Search.Backend == BackendBleve && cfg.Database.SearchIndex != "" {
		be, err := NewBleveEngine(store, cfg.Database.SearchIndex)
		if err == nil {
			if n, err := be.DocCount(); err == nil {
				debuglog.Infof("search index %s ready with %d docs", cfg.Database.SearchIndex, n)
			}
			return be
		}
		debuglog.Warnf("falling back to simple search: %v", err)
	}
	return NewEngine(store)
}

// Notify forwards a world change to s if it maintains an index.
func Notify(s Searcher, worldID string) {
	if l, ok := s.(UpdateListener); ok {
		if err := l.OnDataUpdated(worldID); err != nil {
			debuglog.Errorf("updating search index for world %s: %v", worldID, err)
		}
	}
}

// NotifyDeleted forwards a world deletion to s if it maintains an index.
func NotifyDeleted(s Searcher, worldID string) {
	if l, ok := s.(DeleteListener); ok {
		if err := l.OnWorldDeleted(worldID); err != nil {
			debuglog.Errorf("removing world %s from search index: %v", worldID, err)
		}
	}
}
