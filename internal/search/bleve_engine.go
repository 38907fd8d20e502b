package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/timelines/internal/debuglog"
	"github.com/pders01/timelines/internal/storage"
)

// BleveEngine keeps a persistent full-text index of every world.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine opens the index at indexPath, creating it if needed, and
// reindexes the whole store.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index at %s: %w", indexPath, err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	text := func(store bool) *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = store
		return f
	}
	exact := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		return f
	}

	title := text(true)
	title.IncludeTermVectors = true

	ts := bleve.NewNumericFieldMapping()
	ts.Store = true

	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("kind", exact())
	dm.AddFieldMappingsAt("world_id", exact())
	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", text(true))
	dm.AddFieldMappingsAt("content", text(false))
	dm.AddFieldMappingsAt("timestamp", ts)

	im.DefaultMapping = dm
	return im
}

func docID(kind Kind, id string) string { return string(kind) + ":" + id }

func (b *BleveEngine) indexWorld(batch *bleve.Batch, worldID string) error {
	events, err := b.store.GetEvents(worldID)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := batch.Index(docID(KindEvent, ev.ID), map[string]any{
			"kind":        string(KindEvent),
			"world_id":    worldID,
			"title":       ev.Name,
			"description": ev.Description,
			"timestamp":   float64(ev.Timestamp),
		}); err != nil {
			return err
		}
	}

	actors, err := b.store.GetActors(worldID)
	if err != nil {
		return err
	}
	for _, a := range actors {
		if err := batch.Index(docID(KindActor, a.ID), map[string]any{
			"kind":        string(KindActor),
			"world_id":    worldID,
			"title":       a.Name,
			"description": strings.TrimSpace(a.Title + " " + a.Description),
		}); err != nil {
			return err
		}
	}

	articles, err := b.store.GetArticles(worldID)
	if err != nil {
		return err
	}
	for _, a := range articles {
		if err := batch.Index(docID(KindArticle, a.ID), map[string]any{
			"kind":        string(KindArticle),
			"world_id":    worldID,
			"title":       a.Name,
			"description": truncate(a.Content, snippetLength),
			"content":     a.Content,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *BleveEngine) reindexAll() error {
	worlds, err := b.store.GetAllWorlds()
	if err != nil {
		return err
	}
	batch := b.idx.NewBatch()
	for _, w := range worlds {
		if err := b.indexWorld(batch, w.ID); err != nil {
			return fmt.Errorf("indexing world %s: %w", w.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	boosts := []struct {
		field  string
		match  float64
		prefix float64
	}{
		{"title", 4.0, 3.5},
		{"description", 2.0, 1.8},
		{"content", 1.0, 0.8},
	}
	var qs []bleveQuery.Query
	for _, term := range terms {
		for _, bst := range boosts {
			mq := bleve.NewMatchQuery(term)
			mq.SetField(bst.field)
			mq.SetBoost(bst.match)
			pq := bleve.NewPrefixQuery(term)
			pq.SetField(bst.field)
			pq.SetBoost(bst.prefix)
			qs = append(qs, mq, pq)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"kind", "world_id", "title", "description", "timestamp"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		kind, id, ok := strings.Cut(h.ID, ":")
		if !ok {
			continue
		}
		r := &Result{Kind: Kind(kind), ID: id, Score: h.Score}
		if v, ok := h.Fields["world_id"].(string); ok {
			r.WorldID = v
		}
		if v, ok := h.Fields["title"].(string); ok {
			r.Title = v
		}
		if v, ok := h.Fields["description"].(string); ok {
			r.Snippet = bestSnippet(v, terms, snippetLength)
		}
		if v, ok := h.Fields["timestamp"].(float64); ok {
			r.Timestamp = int64(v)
		}
		out = append(out, r)
	}
	return out, nil
}

// OnDataUpdated drops and rebuilds every document of the world.
func (b *BleveEngine) OnDataUpdated(worldID string) error {
	if err := b.deleteWorldDocs(worldID); err != nil {
		return err
	}
	batch := b.idx.NewBatch()
	if err := b.indexWorld(batch, worldID); err != nil {
		return err
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing world %s: %w", worldID, err)
	}
	debuglog.Debugf("reindexed world %s (%d docs)", worldID, batch.Size())
	return nil
}

func (b *BleveEngine) OnWorldDeleted(worldID string) error {
	return b.deleteWorldDocs(worldID)
}

func (b *BleveEngine) deleteWorldDocs(worldID string) error {
	tq := bleve.NewTermQuery(worldID)
	tq.SetField("world_id")

	const pageSize = 1000
	for {
		req := bleve.NewSearchRequestOptions(tq, pageSize, 0, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return fmt.Errorf("listing documents of world %s: %w", worldID, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return fmt.Errorf("deleting documents of world %s: %w", worldID, err)
		}
		if len(res.Hits) < pageSize {
			return nil
		}
	}
}

func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
